// Package photo models the layered photo editor document and the edits
// applied to it.
package photo

import "errors"

var (
	ErrUnknownAdjustment = errors.New("unknown adjustment")
	ErrUnknownFilter     = errors.New("unknown filter")
	ErrUnknownTool       = errors.New("unknown tool")
	ErrUnknownShape      = errors.New("unknown shape")
	ErrLayerNotFound     = errors.New("layer not found")
	ErrNoActiveLayer     = errors.New("no active layer")
	ErrInvalidSize       = errors.New("canvas size must be positive")
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600

	MinZoom = 0.1
	MaxZoom = 10.0

	AdjustmentMin = -100.0
	AdjustmentMax = 100.0

	MaxHistory = 50
)

type LayerKind string

const (
	LayerImage LayerKind = "image"
	LayerText  LayerKind = "text"
	LayerShape LayerKind = "shape"
)

type FilterKind string

const (
	FilterNone     FilterKind = "none"
	FilterVintage  FilterKind = "vintage"
	FilterBW       FilterKind = "bw"
	FilterSepia    FilterKind = "sepia"
	FilterWarm     FilterKind = "warm"
	FilterCool     FilterKind = "cool"
	FilterDramatic FilterKind = "dramatic"
	FilterFade     FilterKind = "fade"
	FilterVivid    FilterKind = "vivid"
	FilterMatte    FilterKind = "matte"
)

type Tool string

const (
	ToolSelect     Tool = "select"
	ToolMove       Tool = "move"
	ToolCrop       Tool = "crop"
	ToolRotate     Tool = "rotate"
	ToolBrush      Tool = "brush"
	ToolEraser     Tool = "eraser"
	ToolClone      Tool = "clone"
	ToolHeal       Tool = "heal"
	ToolText       Tool = "text"
	ToolShape      Tool = "shape"
	ToolGradient   Tool = "gradient"
	ToolEyedropper Tool = "eyedropper"
	ToolZoom       Tool = "zoom"
	ToolPan        Tool = "pan"
)

var tools = map[Tool]bool{
	ToolSelect: true, ToolMove: true, ToolCrop: true, ToolRotate: true,
	ToolBrush: true, ToolEraser: true, ToolClone: true, ToolHeal: true,
	ToolText: true, ToolShape: true, ToolGradient: true, ToolEyedropper: true,
	ToolZoom: true, ToolPan: true,
}

// Drawing reports whether the tool paints free-hand strokes.
func (t Tool) Drawing() bool {
	return t == ToolBrush || t == ToolEraser
}

// Cursor is the pointer the canvas shows while the tool is active.
func (t Tool) Cursor() string {
	switch t {
	case ToolMove, ToolPan:
		return "grab"
	case ToolCrop:
		return "crosshair"
	case ToolText:
		return "text"
	case ToolEyedropper:
		return "copy"
	}
	return "default"
}

// Adjustments are the tonal controls, each in [-100, 100].
type Adjustments struct {
	Brightness  float64 `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Saturation  float64 `json:"saturation"`
	Hue         float64 `json:"hue"`
	Exposure    float64 `json:"exposure"`
	Highlights  float64 `json:"highlights"`
	Shadows     float64 `json:"shadows"`
	Whites      float64 `json:"whites"`
	Blacks      float64 `json:"blacks"`
	Clarity     float64 `json:"clarity"`
	Vibrance    float64 `json:"vibrance"`
	Temperature float64 `json:"temperature"`
	Tint        float64 `json:"tint"`
	Sharpness   float64 `json:"sharpness"`
	Noise       float64 `json:"noise"`
	Vignette    float64 `json:"vignette"`
}

func (a *Adjustments) field(name string) *float64 {
	switch name {
	case "brightness":
		return &a.Brightness
	case "contrast":
		return &a.Contrast
	case "saturation":
		return &a.Saturation
	case "hue":
		return &a.Hue
	case "exposure":
		return &a.Exposure
	case "highlights":
		return &a.Highlights
	case "shadows":
		return &a.Shadows
	case "whites":
		return &a.Whites
	case "blacks":
		return &a.Blacks
	case "clarity":
		return &a.Clarity
	case "vibrance":
		return &a.Vibrance
	case "temperature":
		return &a.Temperature
	case "tint":
		return &a.Tint
	case "sharpness":
		return &a.Sharpness
	case "noise":
		return &a.Noise
	case "vignette":
		return &a.Vignette
	}
	return nil
}

// FilterStep is one filter the canvas applies to an image layer, in order.
type FilterStep struct {
	Type  string  `json:"type"`
	Value float64 `json:"value,omitempty"`
}

type TextProps struct {
	Text        string  `json:"text"`
	FontFamily  string  `json:"fontFamily"`
	FontSize    float64 `json:"fontSize"`
	FontWeight  string  `json:"fontWeight"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	TextAlign   string  `json:"textAlign"`
	LineHeight  float64 `json:"lineHeight"`
	CharSpacing float64 `json:"charSpacing"`
}

type ShapeProps struct {
	Kind        string     `json:"kind"` // rect, circle, triangle, line
	Width       float64    `json:"width,omitempty"`
	Height      float64    `json:"height,omitempty"`
	Radius      float64    `json:"radius,omitempty"`
	Points      [4]float64 `json:"points,omitempty"`
	Fill        string     `json:"fill,omitempty"`
	Stroke      string     `json:"stroke,omitempty"`
	StrokeWidth float64    `json:"strokeWidth,omitempty"`
}

type Layer struct {
	ID      string       `json:"id"`
	Type    LayerKind    `json:"type"`
	Name    string       `json:"name"`
	Visible bool         `json:"visible"`
	Locked  bool         `json:"locked"`
	Opacity float64      `json:"opacity"`
	Left    float64      `json:"left"`
	Top     float64      `json:"top"`
	Scale   float64      `json:"scale"`
	Angle   float64      `json:"angle"`
	FlipX   bool         `json:"flipX"`
	FlipY   bool         `json:"flipY"`
	Src     string       `json:"src,omitempty"`
	Width   float64      `json:"width,omitempty"`
	Height  float64      `json:"height,omitempty"`
	Filters []FilterStep `json:"filters,omitempty"`
	Text    *TextProps   `json:"text,omitempty"`
	Shape   *ShapeProps  `json:"shape,omitempty"`
}

func (l Layer) clone() Layer {
	out := l
	if l.Filters != nil {
		out.Filters = append([]FilterStep(nil), l.Filters...)
	}
	if l.Text != nil {
		t := *l.Text
		out.Text = &t
	}
	if l.Shape != nil {
		s := *l.Shape
		out.Shape = &s
	}
	return out
}

// Document is the part of the editor captured by undo history.
type Document struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Background    string  `json:"background"`
	Layers        []Layer `json:"layers"`
	ActiveLayerID string  `json:"activeLayerId,omitempty"`
}

func (d Document) clone() Document {
	out := d
	out.Layers = make([]Layer, len(d.Layers))
	for i, l := range d.Layers {
		out.Layers[i] = l.clone()
	}
	return out
}

type Brush struct {
	Size    float64 `json:"size"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// State is the full editor view handed to clients.
type State struct {
	Document     Document    `json:"document"`
	Adjustments  Adjustments `json:"adjustments"`
	ActiveFilter FilterKind  `json:"activeFilter"`
	ActiveTool   Tool        `json:"activeTool"`
	Cursor       string      `json:"cursor"`
	Zoom         float64     `json:"zoom"`
	Brush        Brush       `json:"brush"`
	CanUndo      bool        `json:"canUndo"`
	CanRedo      bool        `json:"canRedo"`
}

// Saved is the persisted form of an editor kept in a project's data.
type Saved struct {
	Document     Document    `json:"document"`
	Adjustments  Adjustments `json:"adjustments"`
	ActiveFilter FilterKind  `json:"activeFilter"`
}

type TextOptions struct {
	Text        string  `json:"text"`
	FontFamily  string  `json:"fontFamily,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
	FontWeight  string  `json:"fontWeight,omitempty"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	TextAlign   string  `json:"textAlign,omitempty"`
	LineHeight  float64 `json:"lineHeight,omitempty"`
	CharSpacing float64 `json:"charSpacing,omitempty"`
}

type ShapeOptions struct {
	Type        string  `json:"type"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
}
