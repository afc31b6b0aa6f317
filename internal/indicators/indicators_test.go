package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfort/parityscan/pkg/model"
)

func TestExtract_PythonClasses(t *testing.T) {
	src := `import numpy as np

class SimpleMovingAverage(Indicator):
    def __init__(self, period):
        self.period = period

class NotAnIndicator(Base):
    pass

class Rsi( Indicator ):
    pass
`
	defs := Extract("py/sma.py", model.CategoryPython, src)
	require.Len(t, defs, 2)
	assert.Equal(t, "SimpleMovingAverage", defs[0].Name)
	assert.Equal(t, 2, defs[0].Line)
	assert.Equal(t, "Rsi", defs[1].Name)
	assert.Equal(t, model.CategoryPython, defs[0].Category)
}

func TestExtract_CythonClasses(t *testing.T) {
	src := `cimport numpy as np

cdef class Ema(Indicator):
    cdef double alpha

class PlainPythonInCython(Indicator):
    pass
`
	defs := Extract("cy/ema.pyx", model.CategoryCython, src)
	require.Len(t, defs, 1, "cython extraction only matches cdef classes")
	assert.Equal(t, "Ema", defs[0].Name)
}

func TestExtract_RustStructs(t *testing.T) {
	src := `use crate::core::Indicator;

pub struct MacdIndicator {
    fast: usize,
}

struct PrivateIndicator {
    x: f64,
}

pub struct Config {
    y: f64,
}
`
	defs := Extract("rust/macd.rs", model.CategoryRust, src)
	require.Len(t, defs, 1)
	assert.Equal(t, "MacdIndicator", defs[0].Name)
	assert.Equal(t, 2, defs[0].Line)
}

func TestExtract_UnknownCategory(t *testing.T) {
	assert.Empty(t, Extract("x.md", model.CategoryUnknown, "class Foo(Indicator):"))
}

func TestExtract_CaseInsensitive(t *testing.T) {
	defs := Extract("a.py", model.CategoryPython, "CLASS Sma(INDICATOR):")
	require.Len(t, defs, 1)
	assert.Equal(t, "Sma", defs[0].Name)
}
