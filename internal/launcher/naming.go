// SPDX-License-Identifier: MPL-2.0

package launcher

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duckietown/dt-build-utils/pkg/types"
)

const (
	// ContainerNamePrefix starts every generated container name.
	ContainerNamePrefix = "build_utils"

	// timestampLayout renders the seconds part of the name timestamp; the
	// microseconds are appended separately.
	timestampLayout = "2006_01_02_15_04_05"
)

// userEnvVars are consulted in order before falling back to the OS account.
var userEnvVars = []string{"LOGNAME", "USER", "LNAME", "USERNAME"}

// currentOSUser is replaced in tests.
var currentOSUser = func() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

// LookupEnvFunc has the signature of os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// NewContainerName returns build_utils_<YYYY_MM_DD_HH_MM_SS_ffffff>_<hex>,
// where hex is 32 characters derived from 16 bytes read from entropy.
// A nil entropy reader uses crypto/rand.
func NewContainerName(now time.Time, entropy io.Reader) (types.ContainerName, error) {
	if entropy == nil {
		entropy = rand.Reader
	}
	id, err := uuid.NewRandomFromReader(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate container name suffix: %w", err)
	}

	name := types.ContainerName(fmt.Sprintf("%s_%s_%06d_%s",
		ContainerNamePrefix,
		now.Format(timestampLayout),
		now.Nanosecond()/int(time.Microsecond),
		strings.ReplaceAll(id.String(), "-", ""),
	))
	if err := name.Validate(); err != nil {
		return "", err
	}
	return name, nil
}

// CurrentUser returns the login name the way Python's getpass.getuser does:
// the first non-empty variable among LOGNAME, USER, LNAME and USERNAME, then
// the OS account.
func CurrentUser(lookupEnv LookupEnvFunc) (string, error) {
	for _, key := range userEnvVars {
		if v, ok := lookupEnv(key); ok && v != "" {
			return v, nil
		}
	}
	name, err := currentOSUser()
	if err != nil {
		return "", fmt.Errorf("failed to determine the current user: %w", err)
	}
	if name == "" {
		return "", errors.New("failed to determine the current user: empty user name")
	}
	return name, nil
}

// LogPath returns <logDir>/<user>/duckietown/dt-shell-commands/build_utils/<name>.txt.
func LogPath(logDir, userName string, name types.ContainerName) string {
	return filepath.Join(logDir, userName, "duckietown", "dt-shell-commands", "build_utils", name.String()+".txt")
}
