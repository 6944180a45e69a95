//go:build linux

package mounts

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

func listNative() ([]Mount, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrUnsupported
		}
		return nil, err
	}
	defer f.Close()

	ms, err := parseProcMounts(f)
	if err != nil {
		return nil, err
	}
	for i := range ms {
		var st unix.Statfs_t
		if err := unix.Statfs(ms[i].Path, &st); err != nil {
			continue
		}
		ms[i].Total = st.Blocks * uint64(st.Bsize)
		ms[i].Free = st.Bavail * uint64(st.Bsize)
	}
	return ms, nil
}

func parseProcMounts(r io.Reader) ([]Mount, error) {
	var ms []Mount
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		ms = append(ms, Mount{
			Source: unescapeOctal(fields[0]),
			Path:   unescapeOctal(fields[1]),
			FSType: fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ms, nil
}

// unescapeOctal undoes the \040-style escaping /proc/mounts applies to spaces
// and other separators.
func unescapeOctal(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			b.WriteByte((s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }
