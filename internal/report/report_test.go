package report

import (
	"bytes"
	"image"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/landing-detect/internal/detection"
	"github.com/ironsheep/landing-detect/internal/geometry"
	"github.com/ironsheep/landing-detect/internal/imaging"
	"github.com/ironsheep/landing-detect/internal/pipeline"
)

func square(x, y, size float64) geometry.Polygon {
	return geometry.Polygon{
		geometry.Pt(x, y), geometry.Pt(x+size, y), geometry.Pt(x+size, y+size), geometry.Pt(x, y+size),
	}
}

func sampleResult() *pipeline.Result {
	img := image.NewNRGBA(image.Rect(0, 0, 120, 80))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0, 0, 255, 255
	}

	first := detection.ClassifiedShape{Polygon: square(10, 10, 20), Label: detection.Cross}
	second := detection.ClassifiedShape{Polygon: square(40, 10, 20), Label: detection.Square}
	flat := detection.ClassifiedShape{
		Polygon: geometry.Polygon{geometry.Pt(0, 70), geometry.Pt(5, 70), geometry.Pt(10, 70)},
		Label:   detection.Other,
	}

	return &pipeline.Result{
		Path:            "pad.png",
		Frame:           &imaging.Frame{Image: img, Scale: 0.5, SourceWidth: 240, SourceHeight: 160},
		Contours:        4,
		SkippedContours: 1,
		Shapes:          []detection.ClassifiedShape{first, second, flat},
		Composites: []detection.CompositePair{{
			First: first, Second: second, FirstIndex: 0, SecondIndex: 1, Distance: 30,
		}},
		Fiducials: []detection.FiducialSquare{{Polygon: square(80, 40, 10)}},
		Duration:  1500 * time.Microsecond,
	}
}

func TestFromResult(t *testing.T) {
	rep := FromResult(sampleResult())

	assert.Equal(t, "pad.png", rep.Path)
	assert.Equal(t, 120, rep.Width)
	assert.Equal(t, 80, rep.Height)
	assert.Equal(t, 0.5, rep.Scale)
	assert.Equal(t, 4, rep.Contours)
	assert.Equal(t, 1, rep.SkippedContours)
	assert.Equal(t, 1.5, rep.DurationMS)

	require.Len(t, rep.Shapes, 3)
	s := rep.Shapes[0]
	assert.Equal(t, detection.Cross, s.Label)
	assert.Equal(t, 4, s.Vertices)
	assert.InDelta(t, 400, s.Area, 1e-9)
	assert.InDelta(t, 80, s.Perimeter, 1e-9)
	require.NotNil(t, s.Centroid)
	assert.Equal(t, geometry.Pt(20, 20), *s.Centroid)
	require.NotNil(t, s.Color)
	assert.Equal(t, "#0000FF", strings.ToUpper(s.Color.Hex))
	require.NotNil(t, s.Circularity)
	assert.InDelta(t, 0.785, *s.Circularity, 0.001)

	flat := rep.Shapes[2]
	assert.Nil(t, flat.Centroid, "zero-area polygon has no centroid")
	assert.Nil(t, flat.Color)

	require.Len(t, rep.Composites, 1)
	c := rep.Composites[0]
	assert.Equal(t, 0, c.First)
	assert.Equal(t, 1, c.Second)
	assert.Equal(t, detection.Square, c.SecondLabel)
	assert.Equal(t, geometry.Rect{X: 10, Y: 10, Width: 51, Height: 21}, c.Bounds)

	require.Len(t, rep.Fiducials, 1)
	assert.Equal(t, geometry.Pt(85, 45), *rep.Fiducials[0].Centroid)
}

func TestFromResult_EmptyListsEncodeAsArrays(t *testing.T) {
	res := sampleResult()
	res.Shapes, res.Composites, res.Fiducials = nil, nil, nil

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, FormatJSON)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(FromResult(res)))

	assert.Contains(t, buf.String(), `"shapes": []`)
	assert.Contains(t, buf.String(), `"composites": []`)
}

func TestEncoder_JSON(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, FormatJSON)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(FromResult(sampleResult())))
	require.NoError(t, enc.Close())

	var decoded map[string]any
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &decoded))
	shapes := decoded["shapes"].([]any)
	assert.Equal(t, "Cross", shapes[0].(map[string]any)["label"])
	assert.Equal(t, "pad.png", decoded["path"])
}

func TestEncoder_YAMLStream(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, FormatYAML)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(FromResult(sampleResult())))
	require.NoError(t, enc.Encode(FromResult(sampleResult())))
	require.NoError(t, enc.Close())

	dec := yaml.NewDecoder(&buf)
	docs := 0
	for {
		var doc Image
		if err := dec.Decode(&doc); err != nil {
			break
		}
		docs++
		assert.Equal(t, detection.Cross, doc.Shapes[0].Label)
	}
	assert.Equal(t, 2, docs)
}

func TestNewEncoder_Unsupported(t *testing.T) {
	_, err := NewEncoder(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
}
