package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/reset-supervisor/internal/gpio"
	"github.com/sweeney/reset-supervisor/internal/logic"
)

type fakePins struct {
	journal  *gpio.Journal
	halt     *gpio.FakeOpenDrain
	reset    *gpio.FakeOpenDrain
	extReset *gpio.FakeOutput
	led      *gpio.FakeOutput
}

func newFakePins() *fakePins {
	j := &gpio.Journal{}
	return &fakePins{
		journal:  j,
		halt:     &gpio.FakeOpenDrain{Name: "HALT", Journal: j},
		reset:    &gpio.FakeOpenDrain{Name: "RESET", Journal: j},
		extReset: &gpio.FakeOutput{Name: "EXT_RESET", Journal: j},
		led:      &gpio.FakeOutput{Name: "LED", Journal: j},
	}
}

func (f *fakePins) driver() *Driver {
	return New(Pins{Halt: f.halt, Reset: f.reset, ExtReset: f.extReset, LED: f.led})
}

func TestApplyAssertOrder(t *testing.T) {
	p := newFakePins()
	d := p.driver()

	require.NoError(t, d.Apply(logic.Outputs{ResetAsserted: true, HaltLED: true}))

	assert.Equal(t, []string{"HALT assert", "RESET assert", "EXT_RESET low", "LED high"}, p.journal.Writes)
	assert.True(t, p.halt.Asserted)
	assert.True(t, p.reset.Asserted)
	assert.False(t, p.extReset.High)
	assert.True(t, p.led.High)
}

func TestApplyNegateOrder(t *testing.T) {
	p := newFakePins()
	d := p.driver()

	require.NoError(t, d.Apply(logic.Outputs{ResetAsserted: true}))
	p.journal.Reset()

	require.NoError(t, d.Apply(logic.Outputs{}))

	assert.Equal(t, []string{"EXT_RESET high", "HALT release", "RESET release", "LED low"}, p.journal.Writes)
	assert.False(t, p.halt.Asserted)
	assert.False(t, p.reset.Asserted)
	assert.True(t, p.extReset.High)
}

func TestApplyWritesEveryTick(t *testing.T) {
	p := newFakePins()
	d := p.driver()

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Apply(logic.Outputs{}))
	}
	assert.Len(t, p.journal.Writes, 12)
}

func TestApplyLEDIndependentOfReset(t *testing.T) {
	tests := []struct {
		name string
		out  logic.Outputs
	}{
		{"asserted, led on", logic.Outputs{ResetAsserted: true, HaltLED: true}},
		{"asserted, led off", logic.Outputs{ResetAsserted: true, HaltLED: false}},
		{"negated, led on", logic.Outputs{ResetAsserted: false, HaltLED: true}},
		{"negated, led off", logic.Outputs{ResetAsserted: false, HaltLED: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePins()
			require.NoError(t, p.driver().Apply(tt.out))
			assert.Equal(t, tt.out.HaltLED, p.led.High)
			assert.Equal(t, tt.out.ResetAsserted, !p.extReset.High)
			assert.Equal(t, tt.out.ResetAsserted, p.halt.Asserted)
		})
	}
}

func TestApplyContinuesAfterFailure(t *testing.T) {
	p := newFakePins()
	fault := errors.New("line busy")
	p.halt.WriteError = fault
	d := p.driver()

	err := d.Apply(logic.Outputs{ResetAsserted: true, HaltLED: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, fault)

	assert.True(t, p.reset.Asserted, "RESET should still be asserted")
	assert.False(t, p.extReset.High, "dedicated reset should still be asserted")
	assert.True(t, p.led.High)
}
