package parser

import (
	"regexp"
	"strings"
)

// Interface names the CwC front end a session was run with.
type Interface string

const (
	InterfaceCLIC    Interface = "CLIC"
	InterfaceSBGN    Interface = "SBGN"
	InterfaceUnknown Interface = "UNKNOWN"
)

// DirInfo is the container metadata encoded in a log directory name such as
// "clic-bob-2018-06-01_silly_name_1a2b3c".
type DirInfo struct {
	ImageID       string    `json:"image_id"`
	ContainerName string    `json:"container_name"`
	ContainerHash string    `json:"container_hash"`
	Interface     Interface `json:"interface"`
}

var containerNamePattern = regexp.MustCompile(`^([\w-]+)_(\w+?_\w+?)_(\w+)`)

// ParseDirName extracts container metadata from the base name of a log directory.
func ParseDirName(base string) DirInfo {
	info := DirInfo{Interface: InterfaceUnknown}

	m := containerNamePattern.FindStringSubmatch(base)
	if m == nil {
		return info
	}
	info.ImageID, info.ContainerName, info.ContainerHash = m[1], m[2], m[3]

	lower := strings.ToLower(info.ImageID)
	switch {
	case strings.HasPrefix(lower, "clic"):
		info.Interface = InterfaceCLIC
		info.ImageID = strings.TrimLeft(info.ImageID[4:], "-")
	case strings.HasPrefix(lower, "sbgn"):
		info.Interface = InterfaceSBGN
		info.ImageID = strings.TrimLeft(info.ImageID[4:], "-")
	}

	// Image names may carry a build date; keep only the name.
	if strings.Contains(info.ImageID, "-20") {
		info.ImageID = strings.SplitN(info.ImageID, "-", 2)[0]
	}

	return info
}
