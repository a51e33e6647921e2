package render

import "sync"

// Names of the parameters the point cloud effect reads
const (
	ParamOctreeTex        = "OctreeTex"
	ParamOctreeRootCenter = "OctreeRootCenter"
	ParamOctreeRootLength = "OctreeRootLength"
	ParamClipPlaneDist    = "ClipPlaneDist"
)

// EffectParams receives named values consumed by the render pass
type EffectParams interface {
	SetEffectParam(name string, value any)
}

// ParamSet is a map backed EffectParams safe for concurrent use
type ParamSet struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewParamSet() *ParamSet {
	return &ParamSet{values: map[string]any{}}
}

func (p *ParamSet) SetEffectParam(name string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[name] = value
}

func (p *ParamSet) Get(name string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[name]
	return v, ok
}
