package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario() []Record {
	return []Record{
		{Task: "node initialization", CPUTime: 10, WallTime: 5, RAMUsedMB: 100},
		{Task: "analysis", CPUTime: 20, WallTime: 10, RAMUsedMB: 150},
	}
}

func TestCompareScenario(t *testing.T) {
	sys := SystemSpec{Name: "SOMDE", Cores: 4, TotalRAMMB: 8 * 1024}
	tests := []struct {
		policy RAMPolicy
		ram    float64
	}{
		{RAMPeak, 150},
		{RAMCumulative, 250},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			rows, err := Compare([]MethodInput{{System: sys, Task: "SOMDE total", Collapse: true, Records: scenario()}},
				Options{RAMPolicy: tt.policy, Reference: DefaultReference})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			row := rows[0]
			assert.Equal(t, "SOMDE total", row.Task)
			assert.Equal(t, 30.0, row.CPUTime)
			assert.Equal(t, 15.0, row.WallTime)
			assert.Equal(t, tt.ram, row.RAMUsedMB)
			assert.InDelta(t, 0.5, row.CPUEfficiency, 1e-12)
			assert.InDelta(t, tt.ram/8192, row.RAMEfficiency, 1e-12)
			assert.InDelta(t, tt.ram/8192*100, row.RAMPercent, 1e-12)
			assert.InDelta(t, 200.0, row.CPUUsagePercent, 1e-12)
			assert.Equal(t, 60.0, row.CPUTimeNormalized)
			assert.Equal(t, 30.0, row.WallTimeNormalized)
			assert.Equal(t, tt.ram, row.RAMUsedNormalizedMB)
			assert.Equal(t, "SOMDE", row.System)
			assert.Equal(t, 4, row.CPUCores)
			assert.Equal(t, 8.0, row.TotalRAMGB)
		})
	}
	assert.InDelta(t, 0.0183, 150.0/8192, 1e-4)
}

func TestCompareWithoutCollapse(t *testing.T) {
	pct := 90.0
	records := []Record{
		{Task: "SpatialDE", CPUTime: 9, WallTime: 10, RAMUsedMB: 64, CPUUsagePercent: &pct},
		{Task: "post", CPUTime: 1, WallTime: 2, RAMUsedMB: 32},
	}
	rows, err := Compare([]MethodInput{{System: SystemSpec{Name: "SpatialDE", Cores: 2, TotalRAMMB: 4096}, Records: records}},
		Options{RAMPolicy: RAMPeak, Reference: DefaultReference})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 90.0, rows[0].CPUUsagePercent)
	assert.Equal(t, 50.0, rows[1].CPUUsagePercent)
	assert.Equal(t, []string{"SpatialDE", "post"}, []string{rows[0].Task, rows[1].Task})
}

func TestCompareKeepsMethodOrder(t *testing.T) {
	a := MethodInput{System: SystemSpec{Name: "SOMDE", Cores: 8, TotalRAMMB: 8192}, Task: "SOMDE", Collapse: true, Records: scenario()}
	b := MethodInput{System: SystemSpec{Name: "SpatialDE", Cores: 16, TotalRAMMB: 32768}, Task: "SpatialDE", Collapse: true,
		Records: []Record{{CPUTime: 100, WallTime: 50, RAMUsedMB: 2048}}}
	rows, err := Compare([]MethodInput{a, b}, Options{RAMPolicy: RAMPeak, Reference: DefaultReference})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SOMDE", rows[0].System)
	assert.Equal(t, "SpatialDE", rows[1].System)
	assert.Equal(t, 50.0, rows[1].CPUTimeNormalized)
	assert.Equal(t, 512.0, rows[1].RAMUsedNormalizedMB)
}

func TestNormalizeIdentity(t *testing.T) {
	r := Record{CPUTime: 123.456, WallTime: 7.89, RAMUsedMB: 1011.12}
	cpu, wall, ram := Normalize(r, SystemSpec{Cores: 8, TotalRAMMB: 8 * 1024}, DefaultReference)
	assert.Equal(t, r.CPUTime, cpu)
	assert.Equal(t, r.WallTime, wall)
	assert.Equal(t, r.RAMUsedMB, ram)

	ref := Reference{Cores: 3, RAMGB: 5.5}
	cpu, wall, ram = Normalize(r, SystemSpec{Cores: 3, TotalRAMMB: 5.5 * 1024}, ref)
	assert.Equal(t, r.CPUTime, cpu)
	assert.Equal(t, r.WallTime, wall)
	assert.Equal(t, r.RAMUsedMB, ram)
}

func TestCollapse(t *testing.T) {
	_, err := Collapse("x", nil, RAMPeak)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = Collapse("x", scenario(), RAMPolicy("avg"))
	assert.Error(t, err)

	pct := 10.0
	r, err := Collapse("x", []Record{{CPUTime: 4, WallTime: 2, RAMUsedMB: 1, CPUUsagePercent: &pct}}, RAMPeak)
	require.NoError(t, err)
	assert.Nil(t, r.CPUUsagePercent)
	assert.Equal(t, 200.0, r.UsagePercent())
}

func TestCompareRejectsInvalidInput(t *testing.T) {
	opt := Options{RAMPolicy: RAMPeak, Reference: DefaultReference}
	_, err := Compare([]MethodInput{{System: SystemSpec{Name: "x", Cores: 0, TotalRAMMB: 1}, Records: scenario()}}, opt)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = Compare([]MethodInput{{System: SystemSpec{Name: "x", Cores: 1, TotalRAMMB: 1}, Records: []Record{{WallTime: 0}}}}, opt)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = Compare(nil, Options{RAMPolicy: RAMPeak})
	assert.Error(t, err)
}

func TestParsePolicyAndMode(t *testing.T) {
	p, err := ParseRAMPolicy("sum")
	require.NoError(t, err)
	assert.Equal(t, RAMCumulative, p)
	_, err = ParseRAMPolicy("mean")
	assert.Error(t, err)

	m, err := ParseMode("basic")
	require.NoError(t, err)
	assert.Equal(t, BasicColumns, m.Columns())
	assert.Len(t, ModeNormalized.Columns(), 14)
	_, err = ParseMode("fancy")
	assert.Error(t, err)
}
