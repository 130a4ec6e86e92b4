package cache

// Keyer derives cache keys for pipeline results.
type Keyer interface {
	// DatasetKey is the key of a full pipeline result built from inputs
	// with the given content hash.
	DatasetKey(inputsHash string, opts DatasetKeyOpts) string
}

// DatasetKeyOpts are the options that change a pipeline result without
// changing its input files.
type DatasetKeyOpts struct {
	Mods            []string `json:"mods"`
	CollisionPolicy string   `json:"policy"`
	RelaxationCap   int      `json:"cap"`
	Schema          int      `json:"schema"` // bumped when the cached layout changes
}

// DefaultKeyer produces "dataset:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DatasetKey implements Keyer.
func (DefaultKeyer) DatasetKey(inputsHash string, opts DatasetKeyOpts) string {
	return hashKey("dataset", inputsHash, opts)
}
