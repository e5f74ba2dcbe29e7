package cpu

import "testing"

func TestRelaxDoesNotPanic(t *testing.T) {
	Relax()
	Relax()
}

func TestPinWithInvalidCoreIsNoOp(t *testing.T) {
	Pin(-1)
	Pin(1 << 20)
}
