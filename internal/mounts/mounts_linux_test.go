//go:build linux

package mounts

import (
	"strings"
	"testing"
)

func TestParseProcMounts(t *testing.T) {
	data := `/dev/sdc / ext4 rw,relatime 0 0
C:\134 /mnt/c 9p rw,noatime 0 0
D:\134My\040Drive /mnt/my\040drive 9p rw 0 0
bogus
`
	ms, err := parseProcMounts(strings.NewReader(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ms) != 3 {
		t.Fatalf("got %d mounts: %+v", len(ms), ms)
	}
	if ms[1].Source != `C:\` || ms[1].FSType != "9p" {
		t.Fatalf("unexpected drive %+v", ms[1])
	}
	if ms[2].Path != "/mnt/my drive" {
		t.Fatalf("path not unescaped: %q", ms[2].Path)
	}
}
