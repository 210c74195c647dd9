package preprocess

import (
	"embed"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/trackflow-backend/internal/graph"
)

const paramsEnv = "PREPROCESS_PARAMS_YAML"

//go:embed params.yaml
var paramsFS embed.FS

type paramsFile struct {
	TransferThreshold int `yaml:"transfer_threshold"`
	MinComponentSize  int `yaml:"min_component_size"`
	WindowStrideDays  int `yaml:"window_stride_days"`
}

var (
	paramsOnce   sync.Once
	loadedParams graph.BuildParams
)

// Params returns the build parameters from the embedded YAML, optionally
// overridden by a file named in PREPROCESS_PARAMS_YAML. Unparseable input
// falls back to the compiled defaults.
func Params() graph.BuildParams {
	paramsOnce.Do(func() {
		loadedParams = graph.DefaultBuildParams()

		raw, err := paramsFS.ReadFile("params.yaml")
		if override := strings.TrimSpace(os.Getenv(paramsEnv)); override != "" {
			if b, rerr := os.ReadFile(override); rerr == nil {
				raw, err = b, nil
			}
		}
		if err != nil {
			return
		}

		var pf paramsFile
		if yerr := yaml.Unmarshal(raw, &pf); yerr != nil {
			return
		}
		if pf.TransferThreshold > 0 {
			loadedParams.TransferThreshold = pf.TransferThreshold
		}
		if pf.MinComponentSize > 0 {
			loadedParams.MinComponentSize = pf.MinComponentSize
		}
		if pf.WindowStrideDays > 0 {
			loadedParams.WindowStride = time.Duration(pf.WindowStrideDays) * 24 * time.Hour
		}
	})
	return loadedParams
}
