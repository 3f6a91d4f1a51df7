// Package vmtest provides an interpreter whose contracts are Go closures, for
// tests that drive the transaction pipeline without real bytecode.
package vmtest

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gnosischain/gnosis-engine/core/vm"
)

// Contract is the behaviour of one account under the scripted interpreter.
type Contract func(evm *vm.EVM, frame *vm.Frame) (vm.FrameResult, error)

// Interpreter runs the Contract registered for the executed address. Frames
// without a registered contract fall back to Default, or succeed with all
// gas left when Default is nil. Creations run Create when it is set.
type Interpreter struct {
	Default Contract
	Create  Contract

	mu        sync.Mutex
	contracts map[common.Address]Contract
	calls     []vm.Frame
}

// New returns an interpreter with the given contracts.
func New(contracts map[common.Address]Contract) *Interpreter {
	in := &Interpreter{contracts: make(map[common.Address]Contract)}
	for addr, c := range contracts {
		in.contracts[addr] = c
	}
	return in
}

// Register sets the contract executed at addr.
func (in *Interpreter) Register(addr common.Address, c Contract) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.contracts[addr] = c
}

// Calls returns the frames run so far, oldest first.
func (in *Interpreter) Calls() []vm.Frame {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]vm.Frame(nil), in.calls...)
}

func (in *Interpreter) Run(evm *vm.EVM, frame *vm.Frame) (vm.FrameResult, error) {
	in.mu.Lock()
	in.calls = append(in.calls, *frame)
	c, ok := in.contracts[frame.Address]
	if frame.IsCreate {
		c, ok = in.Create, in.Create != nil
	}
	if !ok {
		c = in.Default
	}
	in.mu.Unlock()

	if c == nil {
		return vm.FrameResult{Status: vm.StatusSuccess, GasLeft: frame.Gas}, nil
	}
	return c(evm, frame)
}

// Return is a contract that succeeds with output after spending gas.
func Return(output []byte, gas uint64) Contract {
	return func(_ *vm.EVM, frame *vm.Frame) (vm.FrameResult, error) {
		return vm.FrameResult{Status: vm.StatusSuccess, Output: output, GasLeft: frame.Gas - min(gas, frame.Gas)}, nil
	}
}

// Revert is a contract that reverts with output after spending gas.
func Revert(output []byte, gas uint64) Contract {
	return func(_ *vm.EVM, frame *vm.Frame) (vm.FrameResult, error) {
		return vm.FrameResult{Status: vm.StatusRevert, Output: output, GasLeft: frame.Gas - min(gas, frame.Gas)}, nil
	}
}

// Halt is a contract that halts for reason.
func Halt(reason error) Contract {
	return func(_ *vm.EVM, _ *vm.Frame) (vm.FrameResult, error) {
		return vm.FrameResult{Status: vm.StatusHalt, HaltReason: reason}, nil
	}
}

// Sequence runs steps in order against the journal and then returns output
// after spending gas. The first failing step aborts the transaction.
func Sequence(output []byte, gas uint64, steps ...func(j *vm.Journal, frame *vm.Frame) error) Contract {
	return func(evm *vm.EVM, frame *vm.Frame) (vm.FrameResult, error) {
		for _, step := range steps {
			if err := step(evm.Journal(), frame); err != nil {
				return vm.FrameResult{}, err
			}
		}
		return Return(output, gas)(evm, frame)
	}
}

// Store is a step writing value into slot of the executing account.
func Store(slot, value common.Hash) func(*vm.Journal, *vm.Frame) error {
	return func(j *vm.Journal, frame *vm.Frame) error {
		return j.SStore(frame.Address, slot, value)
	}
}
