package builtin

import "scour/internal/tools"

// RegisterAll adds every builtin tool to the registry.
func RegisterAll(reg *tools.Registry) {
	reg.MustRegister(LsTool())
	reg.MustRegister(ReadFileTool())
	reg.MustRegister(WriteFileTool())
	reg.MustRegister(ReadTodosTool())
	reg.MustRegister(WriteTodosTool())
	reg.MustRegister(ThinkTool())
}
