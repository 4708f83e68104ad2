package vm

import (
	"github.com/colorfulnotion/zktx/common"
)

// MockProcess is an in-memory ProcessState for tests and tooling.
type MockProcess struct {
	Context ContextID
	Clock   uint32
	// Stack[0] is the top of the operand stack.
	Stack  []common.Felt
	Memory map[ContextID]map[uint32]common.Word
}

func NewMockProcess() *MockProcess {
	return &MockProcess{
		Context: RootContext(),
		Memory:  make(map[ContextID]map[uint32]common.Word),
	}
}

func (p *MockProcess) Ctx() ContextID { return p.Context }

func (p *MockProcess) Clk() uint32 { return p.Clock }

func (p *MockProcess) GetStackItem(pos int) common.Felt {
	if pos < 0 || pos >= len(p.Stack) {
		return common.ZeroFelt
	}
	return p.Stack[pos]
}

func (p *MockProcess) GetStackWord(idx int) common.Word {
	var w common.Word
	for j := range w {
		w[j] = p.GetStackItem(idx*common.WordSize + j)
	}
	return w
}

func (p *MockProcess) GetMemValue(ctx ContextID, addr uint32) (common.Word, bool) {
	mem, ok := p.Memory[ctx]
	if !ok {
		return common.EmptyWord, false
	}
	w, ok := mem[addr]
	return w, ok
}

// PushStack pushes vals so that the last one ends up on top.
func (p *MockProcess) PushStack(vals ...common.Felt) {
	for _, v := range vals {
		p.Stack = append([]common.Felt{v}, p.Stack...)
	}
}

// PushWord pushes w so that GetStackWord(0) returns it.
func (p *MockProcess) PushWord(w common.Word) {
	p.PushStack(w[3], w[2], w[1], w[0])
}

func (p *MockProcess) SetMemValue(ctx ContextID, addr uint32, w common.Word) {
	mem, ok := p.Memory[ctx]
	if !ok {
		mem = make(map[uint32]common.Word)
		p.Memory[ctx] = mem
	}
	mem[addr] = w
}
