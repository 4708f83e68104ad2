// Package vm holds the contracts between the transaction host and the VM
// interpreter: the read-only view of the running process, the advice
// provider, host responses and compiled program fragments.
package vm

import (
	"github.com/colorfulnotion/zktx/common"
)

// ContextID identifies an execution context (call frame) of the interpreter.
type ContextID uint32

const rootContext ContextID = 0

// RootContext is the outermost context of the executing program.
func RootContext() ContextID {
	return rootContext
}

func (c ContextID) IsRoot() bool {
	return c == rootContext
}

// ProcessState is the view of the interpreter that is passed into every host
// call. Implementations must not be retained past the call.
type ProcessState interface {
	// Ctx returns the context the current instruction executes in.
	Ctx() ContextID
	// Clk returns the current clock cycle.
	Clk() uint32
	// GetStackItem returns the operand stack element at pos, 0 being the top.
	GetStackItem(pos int) common.Felt
	// GetStackWord returns the word at word index idx from the top; element 0 of
	// the word is the topmost of its four stack positions.
	GetStackWord(idx int) common.Word
	// GetMemValue reads a memory word of the given context.
	GetMemValue(ctx ContextID, addr uint32) (common.Word, bool)
}
