package ooc

import (
	"encoding/json"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/ecopia-map/pcstreamer/internal/storage"
)

const (
	ManifestFile    = "meta.json"
	PayloadDir      = "Octants"
	ManifestVersion = 1
)

// Hierarchy description of a persisted point cloud octree. Numbers are kept
// as decimals so that the nesting of octants can be checked exactly.
type Manifest struct {
	Version     int              `json:"version"`
	PointType   string           `json:"pointType"`
	ByteOrder   string           `json:"byteOrder"`
	OctantCount int              `json:"octantCount"`
	TotalPoints int64            `json:"totalPoints"`
	Spacing     decimal.Decimal  `json:"spacing"`
	Root        ManifestCube     `json:"root"`
	Octants     []ManifestOctant `json:"octants"`
}

type ManifestCube struct {
	Center [3]decimal.Decimal `json:"center"`
	Size   decimal.Decimal    `json:"size"`
}

type ManifestOctant struct {
	ID       string             `json:"id"`
	Center   [3]decimal.Decimal `json:"center"`
	Size     decimal.Decimal    `json:"size"`
	Level    int                `json:"level"`
	Parent   string             `json:"parent,omitempty"`
	Children []string           `json:"children,omitempty"`
	File     string             `json:"file,omitempty"`
	Points   int                `json:"points"`
}

// Converts a vector to the decimal triple used by the manifest
func DecimalVector(v r3.Vector) [3]decimal.Decimal {
	return [3]decimal.Decimal{
		decimal.NewFromFloat(v.X),
		decimal.NewFromFloat(v.Y),
		decimal.NewFromFloat(v.Z),
	}
}

func vectorOf(d [3]decimal.Decimal) r3.Vector {
	return r3.Vector{X: d[0].InexactFloat64(), Y: d[1].InexactFloat64(), Z: d[2].InexactFloat64()}
}

func ParseManifest(content []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, &FormatError{Source: ManifestFile, Reason: "malformed json", Err: err}
	}
	return &m, nil
}

func ReadManifest(s storage.Storage) (*Manifest, error) {
	content, err := s.ReadFile(ManifestFile)
	if err != nil {
		return nil, &IOError{Path: ManifestFile, Err: err}
	}
	return ParseManifest(content)
}

func WriteManifest(s storage.Storage, m *Manifest) error {
	content, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot encode manifest")
	}
	w, err := s.Create(ManifestFile)
	if err != nil {
		return err
	}
	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "cannot write manifest")
	}
	return w.Close()
}
