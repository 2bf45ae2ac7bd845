package preprocessing

import (
	"fmt"

	"github.com/absmach/baseliner/experiment"
	"github.com/absmach/baseliner/model"
)

// Resolve merges the requested preprocessing with per-model compatibility
// rules. It never fails: incompatible combinations degrade to the nearest
// compatible setting and every downgrade is recorded as a note on the
// model's entry.
func Resolve(req experiment.Preprocessing, models []string) []experiment.ModelPreprocessing {
	resolved := make([]experiment.ModelPreprocessing, 0, len(models))
	for _, name := range models {
		mp := experiment.ModelPreprocessing{Model: name, Effective: req}
		spec, err := model.Lookup(name)
		if err != nil {
			resolved = append(resolved, mp)

			continue
		}
		if !spec.ScalingSensitive && req.Scaling != experiment.ScalingNone {
			mp.Effective.Scaling = experiment.ScalingNone
			mp.Notes = append(mp.Notes, fmt.Sprintf("%s is insensitive to feature scaling, %s scaling skipped", spec.DisplayName, req.Scaling))
		}
		if !spec.SupportsClassWeight && req.Balancing == experiment.BalancingClassWeight {
			mp.Effective.Balancing = experiment.BalancingNone
			mp.Notes = append(mp.Notes, fmt.Sprintf("%s has no class weighting parameter, class_weight balancing skipped", spec.DisplayName))
		}
		resolved = append(resolved, mp)
	}

	return resolved
}
