package link

import (
	"bytes"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// maxShebangLen is the 127-byte limit the kernel's #! loader enforces
// (spec.md §4.6 step 3).
const maxShebangLen = 127

// rewriteText performs the literal placeholder->newPrefix substitution
// for a file_mode=="text" entry (spec.md §4.6 step 3), then repairs an
// overlong shebang if the first line is one.
func rewriteText(content []byte, placeholder, newPrefix string, windows bool) []byte {
	np := newPrefix
	if windows {
		np = strings.ReplaceAll(np, `\`, "/")
	}
	out := bytes.ReplaceAll(content, []byte(placeholder), []byte(np))
	return repairShebang(out)
}

// repairShebang rewrites an overlong "#!..." first line as
// "#!/usr/bin/env <basename> <rest>" (spec.md §4.6 step 3).
func repairShebang(content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("#!")) {
		return content
	}
	nl := bytes.IndexByte(content, '\n')
	var line []byte
	if nl < 0 {
		line = content
	} else {
		line = content[:nl]
	}
	if len(line) <= maxShebangLen {
		return content
	}

	rest := bytes.TrimPrefix(line, []byte("#!"))
	fields := bytes.Fields(rest)
	if len(fields) == 0 {
		return content
	}
	interpPath := string(fields[0])
	args := rest[len(fields[0]):]
	base := interpPath
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}

	newLine := "#!/usr/bin/env " + base + string(args)
	var out bytes.Buffer
	out.WriteString(newLine)
	if nl >= 0 {
		out.Write(content[nl:])
	}
	return out.Bytes()
}

// rewriteBinary scans content for occurrences of placeholder, each
// optionally followed by a NUL-terminated suffix, and replaces the whole
// span with newPrefix+suffix padded with NUL bytes so the overall byte
// count is preserved (spec.md §4.6 step 3: "never grow or shrink the
// file").
func rewriteBinary(content []byte, placeholder, newPrefix string) ([]byte, error) {
	if len(newPrefix) > len(placeholder) {
		return nil, errors.Errorf("link: new prefix %q longer than placeholder %q, cannot rewrite in place", newPrefix, placeholder)
	}

	out := make([]byte, len(content))
	copy(out, content)
	needle := []byte(placeholder)

	for i := 0; i+len(needle) <= len(out); {
		idx := bytes.Index(out[i:], needle)
		if idx < 0 {
			break
		}
		start := i + idx
		suffixEnd := start + len(needle)
		for suffixEnd < len(out) && out[suffixEnd] != 0 {
			suffixEnd++
		}
		span := suffixEnd - start
		suffix := out[start+len(needle) : suffixEnd]

		replacement := make([]byte, span)
		copy(replacement, newPrefix)
		copy(replacement[len(newPrefix):], suffix)
		// Remaining bytes between end of newPrefix+suffix and span stay
		// zero (NUL padding), matching the pre-allocated zero buffer.
		if len(newPrefix)+len(suffix) < span {
			// already zero from make(); nothing to do
		}
		copy(out[start:suffixEnd], replacement)
		i = suffixEnd
	}
	return out, nil
}

// pyzzerSig is the end-of-central-directory signature ("PK\x05\x06") that
// marks a pip-built Windows launcher's appended zip archive (spec.md
// §4.6 step 3).
var pyzzerSig = []byte{'P', 'K', 0x05, 0x06}

// rewritePyzzer handles the Windows pyzzer-trailer case: find the
// preceding shebang, replace the placeholder in that shebang only, and
// reassemble <launcher><new_shebang><zip_archive>.
func rewritePyzzer(content []byte, placeholder, newPrefix string) ([]byte, bool) {
	sigIdx := bytes.Index(content, pyzzerSig)
	if sigIdx < 0 {
		return content, false
	}
	shebangStart := bytes.LastIndex(content[:sigIdx], []byte("#!"))
	if shebangStart < 0 {
		return content, false
	}
	shebangEnd := bytes.IndexByte(content[shebangStart:], '\n')
	if shebangEnd < 0 {
		shebangEnd = sigIdx
	} else {
		shebangEnd += shebangStart
	}

	oldShebang := content[shebangStart:shebangEnd]
	newShebang := bytes.ReplaceAll(oldShebang, []byte(placeholder), []byte(newPrefix))

	var out bytes.Buffer
	out.Write(content[:shebangStart])
	out.Write(newShebang)
	out.Write(content[shebangEnd:])
	return out.Bytes(), true
}

// codesignMacArm64 re-signs a rewritten Mach-O binary on macOS arm64
// (spec.md §4.6 step 3). This is a one-off external-tool invocation, not
// a script needing the prefix's activated environment, so it calls
// exec.Command directly rather than going through activation.Wrapper —
// the same narrow-boundary discipline still applies, it is simply a
// one-line call with no environment to activate.
func codesignMacArm64(path string) error {
	if runtime.GOOS != "darwin" || runtime.GOARCH != "arm64" {
		return nil
	}
	cmd := exec.Command("codesign", "-s", "-", "-f", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "link: codesign failed: %s", out)
	}
	return nil
}
