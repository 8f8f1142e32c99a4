package main

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/noisefield/internal/sampler"
)

func TestParsePoints(t *testing.T) {
	pts, err := parsePoints("1,2,3; 0.5 ,-1;4")
	require.NoError(t, err)
	assert.Equal(t, []mgl32.Vec3{{1, 2, 3}, {0.5, -1, 0}, {4, 0, 0}}, pts)

	_, err = parsePoints("")
	assert.Error(t, err, "пустой список точек")
	_, err = parsePoints("1,2,3,4")
	assert.Error(t, err, "четыре координаты")
	_, err = parsePoints("a,b")
	assert.Error(t, err)
}

func TestWriteFieldCSV(t *testing.T) {
	var buf bytes.Buffer
	out := csv.NewWriter(&buf)
	field := &sampler.Field{Resolution: 2, Values: []float32{-1, 0, 0.5, 1}}

	require.NoError(t, writeFieldCSV(out, field, true))
	assert.Equal(t, "u,v,value\n0,0,0\n1,0,0.5\n0,1,0.75\n1,1,1\n", buf.String())
}

func TestWriteHashCSV(t *testing.T) {
	var buf bytes.Buffer
	out := csv.NewWriter(&buf)
	field := &sampler.HashField{
		Resolution: 1,
		Hashes:     []uint32{0xff0080ab},
		Colors:     []mgl32.Vec3{{1, 0.5, 0}},
		Offsets:    []float32{1},
	}

	require.NoError(t, writeHashCSV(out, field))
	assert.Equal(t, "u,v,hash,r,g,b,offset\n0,0,ff0080ab,1,0.5,0,1\n", buf.String())
}
