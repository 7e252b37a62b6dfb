package cache

import "slices"

// Key prefixes per entry type.
const (
	ScenePrefix    = "scene"
	ArtifactPrefix = "artifact"
	RemotePrefix   = "remote" // datasets fetched over HTTP
)

// RemoteKey identifies the cached response body of url.
func RemoteKey(url string) string {
	return hashKey(RemotePrefix, url)
}

// SceneKeyOpts are the layout options a cached scene depends on.
type SceneKeyOpts struct {
	Direction  string  `json:"direction"`
	Ranker     string  `json:"ranker"`
	MarginX    float64 `json:"margin_x"`
	MarginY    float64 `json:"margin_y"`
	NodeSep    float64 `json:"node_sep"`
	RankSep    float64 `json:"rank_sep"`
	NodeWidth  float64 `json:"node_width"`
	NodeHeight float64 `json:"node_height"`
}

// ArtifactKeyOpts are the render options a cached artifact depends on.
type ArtifactKeyOpts struct {
	Format   string   `json:"format"`
	Root     string   `json:"root"`
	Selected []string `json:"selected"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Scale    float64  `json:"scale"`
	Fit      bool     `json:"fit"`
	Static   bool     `json:"static"`
	Title    string   `json:"title"`
	Icons    string   `json:"icons"` // hash of icon overrides
}

// Keyer builds cache keys.
type Keyer interface {
	// SceneKey identifies the scene of a dataset laid out with opts.
	SceneKey(datasetHash string, opts SceneKeyOpts) string
	// ArtifactKey identifies one rendering of a scene.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes its inputs into "prefix:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey implements [Keyer].
func (DefaultKeyer) SceneKey(datasetHash string, opts SceneKeyOpts) string {
	return hashKey(ScenePrefix, datasetHash, opts)
}

// ArtifactKey implements [Keyer]. The order of selected keys does not
// matter.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	opts.Selected = sortedCopy(opts.Selected)
	return hashKey(ArtifactPrefix, sceneHash, opts)
}

func sortedCopy(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
