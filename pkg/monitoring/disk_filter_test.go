package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionLabelFor_Linux(t *testing.T) {
	tests := []struct {
		name      string
		part      diskPartition
		wantLabel string
		wantKeep  bool
	}{
		{
			name:      "root partition kept",
			part:      diskPartition{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4", TotalBytes: 500 << 30},
			wantLabel: "/",
			wantKeep:  true,
		},
		{
			name:      "data mount labeled by mountpoint",
			part:      diskPartition{Device: "/dev/sdb1", Mountpoint: "/data", Fstype: "xfs", TotalBytes: 2 << 40},
			wantLabel: "/data",
			wantKeep:  true,
		},
		{
			name:     "tmpfs skipped",
			part:     diskPartition{Mountpoint: "/tmp", Fstype: "tmpfs", TotalBytes: 16 << 30},
			wantKeep: false,
		},
		{
			name:     "overlay skipped",
			part:     diskPartition{Mountpoint: "/var/lib/docker/overlay2/abc", Fstype: "overlay", TotalBytes: 100 << 30},
			wantKeep: false,
		},
		{
			name:     "proc skipped",
			part:     diskPartition{Mountpoint: "/proc", Fstype: "proc", TotalBytes: 0},
			wantKeep: false,
		},
		{
			name:     "run mount skipped",
			part:     diskPartition{Mountpoint: "/run/lock", Fstype: "ext4", TotalBytes: 2 << 30},
			wantKeep: false,
		},
		{
			name:     "snap mount skipped",
			part:     diskPartition{Mountpoint: "/snap/core/123", Fstype: "squashfs", TotalBytes: 2 << 30},
			wantKeep: false,
		},
		{
			name:     "efi partition skipped",
			part:     diskPartition{Mountpoint: "/boot/efi", Fstype: "vfat", TotalBytes: 512 << 20},
			wantKeep: false,
		},
		{
			name:     "sub-GiB partition skipped",
			part:     diskPartition{Mountpoint: "/boot", Fstype: "ext4", TotalBytes: 900 << 20},
			wantKeep: false,
		},
		{
			name:     "runaway prefix does not overmatch",
			part:     diskPartition{Mountpoint: "/running", Fstype: "ext4", TotalBytes: 10 << 30},
			wantKeep: true, wantLabel: "/running",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, keep := partitionLabelFor("linux", tt.part)
			assert.Equal(t, tt.wantKeep, keep)
			if tt.wantKeep {
				assert.Equal(t, tt.wantLabel, label)
			}
		})
	}
}

func TestPartitionLabelFor_Darwin(t *testing.T) {
	tests := []struct {
		mountpoint string
		wantLabel  string
		wantKeep   bool
	}{
		{"/", "System", true},
		{"/System/Volumes/Data", "Data", true},
		{"/System/Volumes/VM", "", false},
		{"/System/Volumes/Preboot", "", false},
		{"/private/var/vm", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.mountpoint, func(t *testing.T) {
			label, keep := partitionLabelFor("darwin", diskPartition{
				Mountpoint: tt.mountpoint,
				Fstype:     "apfs",
				TotalBytes: 500 << 30,
			})
			assert.Equal(t, tt.wantKeep, keep)
			assert.Equal(t, tt.wantLabel, label)
		})
	}
}
