package pkg

import (
	"path/filepath"
	"strconv"

	"github.com/docker/go-units"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ecopia-map/pcstreamer/internal/config"
	"github.com/ecopia-map/pcstreamer/internal/data"
	"github.com/ecopia-map/pcstreamer/internal/io"
	"github.com/ecopia-map/pcstreamer/internal/ooc"
	"github.com/ecopia-map/pcstreamer/internal/storage"
	"github.com/ecopia-map/pcstreamer/pkg/algorithm_manager"
	"github.com/ecopia-map/pcstreamer/tools"
)

// Name of the octree folder when all the inputs are merged
const MergedOctreeFolder = tools.OctreeFolderPrefix + "merged"

// Indexer converts LAS files into out of core octrees readable by the
// streaming loader
type Indexer struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
	newStorage       func(dir string) storage.Storage
}

func NewIndexer(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) *Indexer {
	return &Indexer{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
		newStorage:       storage.NewOSStorage,
	}
}

// Starts the indexing process, returns the manifests of the written octrees
func (indexer *Indexer) RunIndexer(opts *config.IndexOptions) ([]*ooc.Manifest, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	format, err := opts.Format()
	if err != nil {
		return nil, err
	}
	defer indexer.algorithmManager.GetCoordinateConverterAlgorithm().Cleanup()

	glog.Infoln("Preparing list of files to process...")
	lasFiles, err := indexer.fileFinder.GetLasFilesToProcess(opts)
	if err != nil {
		return nil, err
	}
	if len(lasFiles) == 0 {
		return nil, errors.Errorf("no las files found in %s", opts.Input)
	}
	for i, filePath := range lasFiles {
		glog.Infof("las_file path %d [%s]", i+1, filePath)
	}

	if opts.Merge {
		tools.LogOutput("Merging " + strconv.Itoa(len(lasFiles)) + " files")
		manifest, err := indexer.indexFiles(lasFiles, MergedOctreeFolder, opts, format)
		if err != nil {
			return nil, err
		}
		return []*ooc.Manifest{manifest}, nil
	}

	manifests := make([]*ooc.Manifest, 0, len(lasFiles))
	for i, filePath := range lasFiles {
		tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(lasFiles)))
		manifest, err := indexer.indexFiles([]string{filePath}, tools.OctreeFolderName(filePath), opts, format)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}

// Loads the files in a new tree, builds it and writes it in the given
// subfolder of the output
func (indexer *Indexer) indexFiles(lasFiles []string, subfolder string, opts *config.IndexOptions, format data.PointFormat) (*ooc.Manifest, error) {
	tree := indexer.algorithmManager.GetTreeAlgorithm()
	for _, filePath := range lasFiles {
		tools.LogOutput("> reading data from las file...", filepath.Base(filePath))
		n, err := readLas(filePath, opts.Srid, opts.EightBitColors, tree)
		if err != nil {
			return nil, err
		}
		glog.Infof("read %d points from %s", n, filePath)
	}

	tools.LogOutput("> building data structure...")
	if err := tree.Build(); err != nil {
		return nil, errors.Wrapf(err, "cannot build the octree of %s", subfolder)
	}

	tools.LogOutput("> exporting data...")
	out := indexer.newStorage(filepath.Join(opts.Output, subfolder))
	manifest, err := io.WriteTree(tree, out, format, opts.Consumers)
	if err != nil {
		return nil, err
	}

	payloadBytes := float64(manifest.TotalPoints) * float64(format.Stride())
	tools.LogOutput("> done processing", subfolder, "-", manifest.OctantCount, "octants,",
		manifest.TotalPoints, "points,", units.HumanSize(payloadBytes))
	return manifest, nil
}
