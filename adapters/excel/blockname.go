package excel

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"grouper/domain/core"
)

// BlockFromFilename extracts the block number from a face-learning export
// name such as "FaceLearning-Recall-Block3_759-1.xlsx": the third
// dash-separated segment, up to the first underscore, last character.
func BlockFromFilename(path string) (int, error) {
	name := filepath.Base(path)
	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return 0, fmt.Errorf("%w: %s has fewer than three '-' separated parts", core.ErrBlockNumber, name)
	}
	segment := strings.SplitN(parts[2], "_", 2)[0]
	if segment == "" {
		return 0, fmt.Errorf("%w: empty block segment in %s", core.ErrBlockNumber, name)
	}
	block, err := strconv.Atoi(segment[len(segment)-1:])
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", core.ErrBlockNumber, name, err)
	}
	return block, nil
}
