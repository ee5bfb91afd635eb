package photo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Event string

const (
	EventChange  Event = "change"
	EventHistory Event = "historyChange"
	EventZoom    Event = "zoomChange"
	EventTool    Event = "toolChange"
)

var Events = []Event{EventChange, EventHistory, EventZoom, EventTool}

type Listener func(data any)

// HistoryState is the payload of EventHistory.
type HistoryState struct {
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

type Option func(*Editor)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Editor) { e.logger = logger }
}

func WithIDGenerator(fn func(prefix string) string) Option {
	return func(e *Editor) { e.newID = fn }
}

func WithSize(width, height int) Option {
	return func(e *Editor) {
		if width > 0 && height > 0 {
			e.doc.Width, e.doc.Height = width, height
		}
	}
}

// Editor owns a photo document. Like the timeline engine it is not safe for
// concurrent use and notifies listeners synchronously.
type Editor struct {
	doc          Document
	adjustments  Adjustments
	activeFilter FilterKind
	tool         Tool
	zoom         float64
	brush        Brush

	history   *History
	listeners map[Event][]Listener
	logger    zerolog.Logger
	newID     func(prefix string) string
}

func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		doc: Document{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Background: "#ffffff",
			Layers:     []Layer{},
		},
		activeFilter: FilterNone,
		tool:         ToolSelect,
		zoom:         1,
		brush:        Brush{Size: 5, Color: "#000000", Opacity: 1},
		history:      NewHistory(MaxHistory),
		listeners:    make(map[Event][]Listener),
		logger:       zerolog.Nop(),
		newID:        func(prefix string) string { return prefix + "-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.saveHistory()
	return e
}

func (e *Editor) On(event Event, cb Listener) {
	e.listeners[event] = append(e.listeners[event], cb)
}

func (e *Editor) emit(event Event, data any) {
	for _, cb := range e.listeners[event] {
		cb(data)
	}
}

func (e *Editor) changed() {
	e.emit(EventChange, e.State())
}

func (e *Editor) State() State {
	return State{
		Document:     e.doc.clone(),
		Adjustments:  e.adjustments,
		ActiveFilter: e.activeFilter,
		ActiveTool:   e.tool,
		Cursor:       e.tool.Cursor(),
		Zoom:         e.zoom,
		Brush:        e.brush,
		CanUndo:      e.history.CanUndo(),
		CanRedo:      e.history.CanRedo(),
	}
}

// Saved returns the persisted form of the editor.
func (e *Editor) Saved() Saved {
	return Saved{
		Document:     e.doc.clone(),
		Adjustments:  e.adjustments,
		ActiveFilter: e.activeFilter,
	}
}

// Restore replaces the document with a persisted one and restarts history
// from it.
func (e *Editor) Restore(s Saved) {
	doc := s.Document.clone()
	if doc.Width <= 0 || doc.Height <= 0 {
		doc.Width, doc.Height = DefaultWidth, DefaultHeight
	}
	if doc.Background == "" {
		doc.Background = "#ffffff"
	}
	e.doc = doc
	e.adjustments = s.Adjustments
	e.activeFilter = s.ActiveFilter
	if _, ok := filterPresets[e.activeFilter]; !ok {
		e.activeFilter = FilterNone
	}
	e.ClearHistory()
	e.changed()
}

// ApplyAdjustments merges the given controls, clamped to [-100, 100], and
// rebuilds the filter chain of the target image. Unknown names reject the
// whole update. It does not record history.
func (e *Editor) ApplyAdjustments(values map[string]float64) error {
	next := e.adjustments
	for name, v := range values {
		f := next.field(name)
		if f == nil {
			return fmt.Errorf("%w: %q", ErrUnknownAdjustment, name)
		}
		*f = max(AdjustmentMin, min(v, AdjustmentMax))
	}
	e.adjustments = next

	if l := e.targetImage(); l != nil {
		l.Filters = AdjustmentChain(e.adjustments)
	}
	e.changed()
	return nil
}

// ApplyFilter replaces the target image's filters with a preset. History is
// only recorded when an image received it.
func (e *Editor) ApplyFilter(kind FilterKind) error {
	steps, err := PresetChain(kind)
	if err != nil {
		return err
	}
	e.activeFilter = kind

	if l := e.targetImage(); l != nil {
		l.Filters = steps
		e.saveHistory()
	}
	e.changed()
	return nil
}

func (e *Editor) SetTool(tool Tool) error {
	if !tools[tool] {
		return fmt.Errorf("%w: %q", ErrUnknownTool, tool)
	}
	e.tool = tool
	e.emit(EventTool, tool)
	e.changed()
	return nil
}

func (e *Editor) SetBrushSize(size float64) {
	if size > 0 {
		e.brush.Size = size
	}
	e.changed()
}

func (e *Editor) SetBrushColor(color string) {
	if color != "" {
		e.brush.Color = color
	}
	e.changed()
}

func (e *Editor) SetBrushOpacity(opacity float64) {
	e.brush.Opacity = max(0, min(opacity, 1))
	e.changed()
}

// BrushColor is the stroke color of the active drawing tool.
func (e *Editor) BrushColor() string {
	if e.tool == ToolEraser {
		return e.doc.Background
	}
	return e.brush.Color
}

// AddImage clears the canvas and places the image as its background,
// scaled down to 90% of the canvas when it does not fit, and centered.
func (e *Editor) AddImage(src string, width, height float64) Layer {
	cw, ch := float64(e.doc.Width), float64(e.doc.Height)

	scale := 1.0
	if width > cw || height > ch {
		sx, sy := 1.0, 1.0
		if width > 0 {
			sx = cw / width
		}
		if height > 0 {
			sy = ch / height
		}
		scale = min(sx, sy) * 0.9
	}

	l := Layer{
		ID:      e.newID("image"),
		Type:    LayerImage,
		Name:    "Background",
		Visible: true,
		Opacity: 1,
		Left:    (cw - width*scale) / 2,
		Top:     (ch - height*scale) / 2,
		Scale:   scale,
		Src:     src,
		Width:   width,
		Height:  height,
	}

	e.doc.Layers = []Layer{l}
	e.doc.ActiveLayerID = ""
	e.saveHistory()
	e.changed()
	return l.clone()
}

func (e *Editor) AddText(opts TextOptions) Layer {
	props := &TextProps{
		Text:        opts.Text,
		FontFamily:  or(opts.FontFamily, "Arial"),
		FontSize:    orNum(opts.FontSize, 32),
		FontWeight:  or(opts.FontWeight, "normal"),
		Fill:        or(opts.Fill, e.brush.Color),
		Stroke:      opts.Stroke,
		StrokeWidth: opts.StrokeWidth,
		TextAlign:   or(opts.TextAlign, "left"),
		LineHeight:  orNum(opts.LineHeight, 1.2),
		CharSpacing: opts.CharSpacing,
	}

	l := Layer{
		ID:      e.newID("text"),
		Type:    LayerText,
		Name:    "Text",
		Visible: true,
		Opacity: 1,
		Left:    float64(e.doc.Width) / 2,
		Top:     float64(e.doc.Height) / 2,
		Scale:   1,
		Text:    props,
	}
	return e.addLayer(l)
}

func (e *Editor) AddShape(opts ShapeOptions) (Layer, error) {
	fill := or(opts.Fill, e.brush.Color)
	shape := &ShapeProps{Kind: opts.Type, Stroke: opts.Stroke, StrokeWidth: opts.StrokeWidth}

	l := Layer{
		ID:      e.newID("shape"),
		Type:    LayerShape,
		Name:    opts.Type,
		Visible: true,
		Opacity: 1,
		Left:    float64(e.doc.Width) / 2,
		Top:     float64(e.doc.Height) / 2,
		Scale:   1,
		Shape:   shape,
	}

	switch opts.Type {
	case "rect", "triangle":
		shape.Width = orNum(opts.Width, 100)
		shape.Height = orNum(opts.Height, 100)
		shape.Fill = fill
	case "circle":
		shape.Radius = orNum(opts.Radius, 50)
		shape.Fill = fill
	case "line":
		shape.Points = [4]float64{50, 50, 200, 200}
		shape.Stroke = or(opts.Stroke, e.brush.Color)
		shape.StrokeWidth = orNum(opts.StrokeWidth, 2)
		l.Left, l.Top = 50, 50
	default:
		return Layer{}, fmt.Errorf("%w: %q", ErrUnknownShape, opts.Type)
	}
	return e.addLayer(l), nil
}

func (e *Editor) addLayer(l Layer) Layer {
	e.doc.Layers = append(e.doc.Layers, l)
	e.doc.ActiveLayerID = l.ID
	e.logger.Debug().Str("layer", l.ID).Str("type", string(l.Type)).Msg("layer added")
	e.saveHistory()
	e.changed()
	return l.clone()
}

// SelectLayer makes id the active layer; an empty id clears the selection.
func (e *Editor) SelectLayer(id string) error {
	if id != "" && e.layer(id) == nil {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}
	e.doc.ActiveLayerID = id
	e.changed()
	return nil
}

func (e *Editor) Rotate(angle float64) error {
	return e.editActive(func(l *Layer) { l.Angle += angle })
}

func (e *Editor) FlipHorizontal() error {
	return e.editActive(func(l *Layer) { l.FlipX = !l.FlipX })
}

func (e *Editor) FlipVertical() error {
	return e.editActive(func(l *Layer) { l.FlipY = !l.FlipY })
}

func (e *Editor) editActive(fn func(l *Layer)) error {
	l := e.layer(e.doc.ActiveLayerID)
	if l == nil {
		return ErrNoActiveLayer
	}
	fn(l)
	e.saveHistory()
	e.changed()
	return nil
}

func (e *Editor) SetZoom(zoom float64) {
	e.zoom = max(MinZoom, min(zoom, MaxZoom))
	e.emit(EventZoom, e.zoom)
	e.changed()
}

// ZoomIn steps the zoom up; a non-positive step means 0.1.
func (e *Editor) ZoomIn(step float64) {
	if step <= 0 {
		step = 0.1
	}
	e.SetZoom(e.zoom + step)
}

func (e *Editor) ZoomOut(step float64) {
	if step <= 0 {
		step = 0.1
	}
	e.SetZoom(e.zoom - step)
}

func (e *Editor) FitToScreen() {
	e.SetZoom(1)
}

func (e *Editor) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	e.doc.Width, e.doc.Height = width, height
	e.changed()
	return nil
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// Undo restores the previous snapshot and reports whether one existed.
func (e *Editor) Undo() (bool, error) {
	doc, ok, err := e.history.Undo()
	return e.restoreSnapshot(doc, ok, err)
}

func (e *Editor) Redo() (bool, error) {
	doc, ok, err := e.history.Redo()
	return e.restoreSnapshot(doc, ok, err)
}

func (e *Editor) restoreSnapshot(doc Document, ok bool, err error) (bool, error) {
	if err != nil || !ok {
		return false, err
	}
	if doc.Layers == nil {
		doc.Layers = []Layer{}
	}
	e.doc = doc
	e.emitHistory()
	e.changed()
	return true, nil
}

// ClearHistory drops every snapshot and records the current document as the
// new starting point.
func (e *Editor) ClearHistory() {
	e.history.Clear()
	e.saveHistory()
}

func (e *Editor) saveHistory() {
	if err := e.history.Save(e.doc); err != nil {
		e.logger.Error().Err(err).Msg("failed to record history")
		return
	}
	e.emitHistory()
}

func (e *Editor) emitHistory() {
	e.emit(EventHistory, HistoryState{CanUndo: e.history.CanUndo(), CanRedo: e.history.CanRedo()})
}

// Dispose drops every listener.
func (e *Editor) Dispose() {
	e.listeners = make(map[Event][]Listener)
}

func (e *Editor) layer(id string) *Layer {
	if id == "" {
		return nil
	}
	for i := range e.doc.Layers {
		if e.doc.Layers[i].ID == id {
			return &e.doc.Layers[i]
		}
	}
	return nil
}

// targetImage is the active layer when it is an image, else the first image.
func (e *Editor) targetImage() *Layer {
	if l := e.layer(e.doc.ActiveLayerID); l != nil && l.Type == LayerImage {
		return l
	}
	for i := range e.doc.Layers {
		if e.doc.Layers[i].Type == LayerImage {
			return &e.doc.Layers[i]
		}
	}
	return nil
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orNum(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
