package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationConfigCheckBounds(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GenerationConfig
		wantErr bool
	}{
		{name: "zero value", cfg: GenerationConfig{}},
		{
			name: "valid maps",
			cfg: GenerationConfig{
				TotalCount:    4,
				BtLevelCounts: map[int]int{1: 2, 6: 2},
				UnitCounts:    map[int]int{1: 4},
			},
		},
		{name: "negative total", cfg: GenerationConfig{TotalCount: -1}, wantErr: true},
		{name: "zero level key", cfg: GenerationConfig{BtLevelCounts: map[int]int{0: 1}}, wantErr: true},
		{name: "negative level count", cfg: GenerationConfig{BtLevelCounts: map[int]int{2: -3}}, wantErr: true},
		{name: "negative unit key", cfg: GenerationConfig{UnitCounts: map[int]int{-1: 1}}, wantErr: true},
		{name: "negative unit count", cfg: GenerationConfig{UnitCounts: map[int]int{1: -1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.CheckBounds()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerationConfigUnmarshalsIntKeyedMaps(t *testing.T) {
	// JSON object keys arrive as strings; the int-keyed count maps must
	// still decode.
	raw := `{
		"use_unit_wise": true,
		"use_bt_levels": true,
		"total_count": 6,
		"bt_level_counts": {"1": 2, "4": 4},
		"unit_counts": {"2": 6}
	}`

	var cfg GenerationConfig
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))

	assert.True(t, cfg.UseUnitWise)
	assert.True(t, cfg.UseBtLevels)
	assert.Equal(t, 6, cfg.TotalCount)
	assert.Equal(t, map[int]int{1: 2, 4: 4}, cfg.BtLevelCounts)
	assert.Equal(t, map[int]int{2: 6}, cfg.UnitCounts)
}
