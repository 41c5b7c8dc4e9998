package monitoring

import (
	"runtime"
	"strings"
)

// minPartitionBytes hides partitions too small to matter (boot, EFI, loops)
const minPartitionBytes = 1 << 30

var pseudoFilesystems = map[string]struct{}{
	"proc":        {},
	"procfs":      {},
	"sysfs":       {},
	"devfs":       {},
	"devtmpfs":    {},
	"tmpfs":       {},
	"ramfs":       {},
	"overlay":     {},
	"squashfs":    {},
	"autofs":      {},
	"cgroup":      {},
	"cgroup2":     {},
	"debugfs":     {},
	"tracefs":     {},
	"securityfs":  {},
	"fusectl":     {},
	"configfs":    {},
	"pstore":      {},
	"binfmt_misc": {},
	"mqueue":      {},
	"hugetlbfs":   {},
	"nsfs":        {},
}

var hiddenMountPrefixes = []string{
	"/dev", "/proc", "/sys", "/run", "/snap", "/boot/efi",
}

// darwinVolumes maps the only mounts worth reporting on macOS to friendly
// labels; APFS exposes many synthetic volumes that all share one container.
var darwinVolumes = map[string]string{
	"/":                    "System",
	"/System/Volumes/Data": "Data",
}

// diskPartition is the subset of partition data the filter decides on
type diskPartition struct {
	Device     string
	Mountpoint string
	Fstype     string
	TotalBytes uint64
}

// partitionLabel returns the reporting label for a partition, or false when
// the partition should be skipped. This is the single interception point for
// platform quirks.
func partitionLabel(p diskPartition) (string, bool) {
	return partitionLabelFor(runtime.GOOS, p)
}

func partitionLabelFor(goos string, p diskPartition) (string, bool) {
	if goos == "darwin" {
		label, ok := darwinVolumes[p.Mountpoint]
		return label, ok
	}

	if _, pseudo := pseudoFilesystems[strings.ToLower(p.Fstype)]; pseudo {
		return "", false
	}
	for _, prefix := range hiddenMountPrefixes {
		if p.Mountpoint == prefix || strings.HasPrefix(p.Mountpoint, prefix+"/") {
			return "", false
		}
	}
	if p.TotalBytes < minPartitionBytes {
		return "", false
	}

	if p.Mountpoint == "/" {
		return "/", true
	}
	return p.Mountpoint, true
}
