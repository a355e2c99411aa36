// internal/convert/selftest.go
package convert

import (
	"context"
	"image/color"

	"vidgif/internal/backend"
	"vidgif/internal/progress"
	"vidgif/internal/validate"
)

// SelfTest writes a small solid-color GIF through the builtin encoder to
// verify the encode path without a real video: 100x100 red, one second at
// ten frames per second.
func SelfTest(ctx context.Context, output string) (string, error) {
	output = validate.NormalizeOutputPath(output, "test.gif")

	job := backend.EncodeJob{
		Dest:         output,
		SourceWidth:  100,
		SourceHeight: 100,
		Width:        100,
		Height:       100,
		FPS:          10,
		Start:        0,
		End:          1,
		Loop:         true,
		Frames: &backend.ColorSource{
			Width:  100,
			Height: 100,
			Color:  color.RGBA{R: 255, A: 255},
			Frames: 10,
		},
	}

	if err := backend.NewBuiltin().Encode(ctx, job, progress.New(nil, nil)); err != nil {
		return "", err
	}
	return output, nil
}
