package ooc

import (
	"path"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/geometry"
	"github.com/ecopia-map/pcstreamer/internal/octree"
	"github.com/ecopia-map/pcstreamer/internal/render"
	"github.com/ecopia-map/pcstreamer/internal/storage"
)

// Name of the scene node wrapping the root octant
const PointCloudNodeName = "PointCloud"

var ErrNoScene = errors.New("ooc: payloads can only be loaded after the scene has been read")

// Reads a persisted octree: the manifest once, payloads on demand. LoadOctant
// is safe to call from several goroutines once GetScene returned.
type Reader struct {
	storage storage.Storage

	mu       sync.RWMutex
	manifest *Manifest
	format   *data.PointFormat
}

func NewReader(s storage.Storage) *Reader {
	return &Reader{storage: s}
}

func (r *Reader) readManifest() (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.manifest != nil {
		return r.manifest, nil
	}
	m, err := ReadManifest(r.storage)
	if err != nil {
		return nil, err
	}
	r.manifest = m
	return m, nil
}

// Total number of octants declared by the manifest
func (r *Reader) NumberOfOctants() (int, error) {
	m, err := r.readManifest()
	if err != nil {
		return 0, err
	}
	return len(m.Octants), nil
}

// Bounding cube of the root octant as declared by the manifest
func (r *Reader) RootBoundingBox() (*geometry.BoundingBox, error) {
	m, err := r.readManifest()
	if err != nil {
		return nil, err
	}
	return geometry.NewBoundingBoxFromCube(vectorOf(m.Root.Center), m.Root.Size.InexactFloat64()), nil
}

// Builds the octant skeleton described by the manifest, without payloads.
// The nesting of every octant into its parent is validated exactly.
func (r *Reader) GetScene() (*Scene, error) {
	m, err := r.readManifest()
	if err != nil {
		return nil, err
	}
	scene, err := SceneFromManifest(m)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.format = &scene.Format
	r.mu.Unlock()

	glog.Infof("loaded octree skeleton: %d octants, %d points, format %s", scene.NumberOfOctants(), scene.TotalPoints, scene.Format.Type)
	return scene, nil
}

// Validates the manifest and builds the skeleton it describes
func SceneFromManifest(m *Manifest) (*Scene, error) {
	format, err := manifestFormat(m)
	if err != nil {
		return nil, err
	}
	return buildScene(m, format)
}

func manifestFormat(m *Manifest) (data.PointFormat, error) {
	if m.Version != ManifestVersion {
		return data.PointFormat{}, formatErrorf(ManifestFile, "unsupported version %d", m.Version)
	}
	pointType, err := data.ParsePointType(m.PointType)
	if err != nil {
		return data.PointFormat{}, &FormatError{Source: ManifestFile, Reason: "bad point type", Err: err}
	}
	order, err := data.ParseByteOrder(m.ByteOrder)
	if err != nil {
		return data.PointFormat{}, &FormatError{Source: ManifestFile, Reason: "bad byte order", Err: err}
	}
	return data.FormatOf(pointType, order)
}

func buildScene(m *Manifest, format data.PointFormat) (*Scene, error) {
	if m.OctantCount != len(m.Octants) {
		return nil, formatErrorf(ManifestFile, "octantCount is %d but %d octants are listed", m.OctantCount, len(m.Octants))
	}

	entries := make(map[octree.OctantID]*ManifestOctant, len(m.Octants))
	octants := make(map[octree.OctantID]*Octant, len(m.Octants))
	for i := range m.Octants {
		entry := &m.Octants[i]
		id, err := octree.ParseOctantID(entry.ID)
		if err != nil {
			return nil, &FormatError{Source: ManifestFile, Reason: "bad octant id", Err: err}
		}
		if _, ok := entries[id]; ok {
			return nil, formatErrorf(ManifestFile, "duplicate octant %s", id)
		}
		if entry.Level != id.Level() {
			return nil, formatErrorf(ManifestFile, "octant %s declares level %d", id, entry.Level)
		}
		if entry.Points < 0 {
			return nil, formatErrorf(ManifestFile, "octant %s declares %d points", id, entry.Points)
		}
		if entry.Points > 0 && entry.File == "" {
			return nil, formatErrorf(ManifestFile, "octant %s has points but no file", id)
		}
		if !entry.Size.IsPositive() {
			return nil, formatErrorf(ManifestFile, "octant %s has size %s", id, entry.Size)
		}
		entries[id] = entry
		octants[id] = &Octant{
			ID:             id,
			Center:         vectorOf(entry.Center),
			Size:           entry.Size.InexactFloat64(),
			Level:          entry.Level,
			PosInParent:    id.PosInParent(),
			File:           entry.File,
			NumberOfPoints: entry.Points,
		}
	}

	rootEntry, ok := entries[octree.RootID]
	if !ok {
		return nil, formatErrorf(ManifestFile, "missing root octant")
	}
	if rootEntry.Parent != "" {
		return nil, formatErrorf(ManifestFile, "root octant declares parent %q", rootEntry.Parent)
	}
	if !rootEntry.Size.Equal(m.Root.Size) || !sameCenter(rootEntry.Center, m.Root.Center) {
		return nil, formatErrorf(ManifestFile, "root octant does not match the root cube")
	}

	for id, entry := range entries {
		if id == octree.RootID {
			continue
		}
		parentID, _ := id.Parent()
		if entry.Parent != string(parentID) {
			return nil, formatErrorf(ManifestFile, "octant %s declares parent %q", id, entry.Parent)
		}
		parentEntry, ok := entries[parentID]
		if !ok {
			return nil, formatErrorf(ManifestFile, "octant %s has no parent %s", id, parentID)
		}
		if err := checkNesting(id, entry, parentEntry); err != nil {
			return nil, err
		}
		parent := octants[parentID]
		child := octants[id]
		child.Parent = parent
		parent.Children[id.PosInParent()] = child
	}

	for id, entry := range entries {
		declared := make(map[octree.OctantID]bool, len(entry.Children))
		for _, c := range entry.Children {
			childID := octree.OctantID(c)
			if _, ok := octants[childID]; !ok {
				return nil, formatErrorf(ManifestFile, "octant %s lists missing child %s", id, c)
			}
			if parentID, _ := childID.Parent(); parentID != id {
				return nil, formatErrorf(ManifestFile, "octant %s lists %s which is not its child", id, c)
			}
			declared[childID] = true
		}
		for _, child := range octants[id].Children {
			if child != nil && !declared[child.ID] {
				return nil, formatErrorf(ManifestFile, "octant %s does not list its child %s", id, child.ID)
			}
		}
	}

	scene := &Scene{
		Root:        octants[octree.RootID],
		Octants:     make([]*Octant, 0, len(octants)),
		Format:      format,
		Spacing:     m.Spacing.InexactFloat64(),
		TotalPoints: m.TotalPoints,
		byID:        octants,
	}
	_ = octree.Traverse(scene.Root, func(o *Octant) {
		o.TexIndex = len(scene.Octants)
		o.IsLeaf = !hasChildren(o)
		scene.Octants = append(scene.Octants, o)
	})
	scene.RootNode = render.NewSceneNode(PointCloudNodeName, scene.Root)
	return scene, nil
}

func hasChildren(o *Octant) bool {
	for _, c := range o.Children {
		if c != nil {
			return true
		}
	}
	return false
}

func sameCenter(a, b [3]decimal.Decimal) bool {
	return a[0].Equal(b[0]) && a[1].Equal(b[1]) && a[2].Equal(b[2])
}

var four = decimal.NewFromInt(4)
var two = decimal.NewFromInt(2)

// A child must be exactly the octant of its parent given by its position:
// half the edge, center offset by a quarter of the parent edge on each axis
func checkNesting(id octree.OctantID, child, parent *ManifestOctant) error {
	if !child.Size.Mul(two).Equal(parent.Size) {
		return formatErrorf(ManifestFile, "octant %s has size %s, parent size is %s", id, child.Size, parent.Size)
	}
	pos := id.PosInParent()
	for axis := 0; axis < 3; axis++ {
		offset := child.Center[axis].Sub(parent.Center[axis]).Mul(four)
		expected := parent.Size
		if pos&(1<<axis) == 0 {
			expected = expected.Neg()
		}
		if !offset.Equal(expected) {
			return formatErrorf(ManifestFile, "octant %s is not octant %d of its parent", id, pos)
		}
	}
	return nil
}

// Reads and decodes the payload of one octant
func (r *Reader) LoadOctant(o *Octant) (*Payload, error) {
	r.mu.RLock()
	format := r.format
	r.mu.RUnlock()
	if format == nil {
		return nil, ErrNoScene
	}
	if o.NumberOfPoints == 0 || o.File == "" {
		return &Payload{Format: *format}, nil
	}

	file := path.Join(PayloadDir, o.File)
	exists, err := r.storage.Exists(file)
	if err != nil {
		return nil, &IOError{Path: file, Err: err}
	}
	if !exists {
		return nil, &IOError{Path: file, Err: errors.New("file does not exist")}
	}
	content, err := r.storage.ReadFile(file)
	if err != nil {
		return nil, &IOError{Path: file, Err: err}
	}
	payload, err := DecodePayload(file, content, *format)
	if err != nil {
		return nil, err
	}
	if payload.Count != o.NumberOfPoints {
		return nil, formatErrorf(file, "holds %d points, manifest declares %d", payload.Count, o.NumberOfPoints)
	}
	return payload, nil
}
