package photo

import "fmt"

const (
	stepBrightness = "brightness"
	stepContrast   = "contrast"
	stepSaturation = "saturation"
	stepHue        = "hueRotation"
	stepSepia      = "sepia"
	stepGrayscale  = "grayscale"
)

var filterPresets = map[FilterKind][]FilterStep{
	FilterNone:     nil,
	FilterVintage:  {{Type: stepSepia}, {Type: stepBrightness, Value: 0.1}},
	FilterBW:       {{Type: stepGrayscale}},
	FilterSepia:    {{Type: stepSepia}},
	FilterWarm:     {{Type: stepHue, Value: 15}, {Type: stepSaturation, Value: 0.2}},
	FilterCool:     {{Type: stepHue, Value: -15}, {Type: stepSaturation, Value: 0.1}},
	FilterDramatic: {{Type: stepContrast, Value: 0.3}, {Type: stepSaturation, Value: 0.2}},
	FilterFade:     {{Type: stepBrightness, Value: 0.1}, {Type: stepSaturation, Value: -0.3}},
	FilterVivid:    {{Type: stepSaturation, Value: 0.5}, {Type: stepContrast, Value: 0.1}},
	FilterMatte:    {{Type: stepBrightness, Value: 0.05}, {Type: stepSaturation, Value: -0.2}},
}

// Filters lists the preset names in display order.
var Filters = []FilterKind{
	FilterNone, FilterVintage, FilterBW, FilterSepia, FilterWarm,
	FilterCool, FilterDramatic, FilterFade, FilterVivid, FilterMatte,
}

// PresetChain returns the filter steps of a preset.
func PresetChain(kind FilterKind) ([]FilterStep, error) {
	steps, ok := filterPresets[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, kind)
	}
	return append([]FilterStep(nil), steps...), nil
}

// AdjustmentChain maps the tonal controls the canvas can render to filter
// steps. Zero controls are skipped; the remaining controls have no canvas
// filter and only travel with the document.
func AdjustmentChain(a Adjustments) []FilterStep {
	var steps []FilterStep
	if a.Brightness != 0 {
		steps = append(steps, FilterStep{Type: stepBrightness, Value: a.Brightness / 100})
	}
	if a.Contrast != 0 {
		steps = append(steps, FilterStep{Type: stepContrast, Value: a.Contrast / 100})
	}
	if a.Saturation != 0 {
		steps = append(steps, FilterStep{Type: stepSaturation, Value: a.Saturation / 100})
	}
	if a.Hue != 0 {
		steps = append(steps, FilterStep{Type: stepHue, Value: a.Hue})
	}
	if a.Exposure != 0 {
		steps = append(steps, FilterStep{Type: stepBrightness, Value: a.Exposure / 200})
	}
	return steps
}
