package driver

import (
	"bytes"
	"crypto/sha256"
	"io/fs"
	"sync"

	"swiftwinrt/internal/project"
	"swiftwinrt/internal/settings"
	"swiftwinrt/internal/version"
	"swiftwinrt/internal/winmd"
	runtimeembed "swiftwinrt/runtime"
)

// generatorID names the generator build: its version and the runtime
// sources copied into the support module. Output cached by another build
// is stale.
var generatorID = sync.OnceValue(func() string {
	return "generator=" + version.Version + "+" + runtimeDigest(runtimeembed.SupportFS()).Hex()
})

// runtimeDigest hashes every file of fsys with its path, in walk order.
func runtimeDigest(fsys fs.FS) project.Digest {
	var parts []string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		parts = append(parts, path, string(data))
		return nil
	})
	if err != nil {
		parts = append(parts, "error="+err.Error())
	}
	return project.HashStrings(parts...)
}

// combineDigest: H(content || dep1 || dep2 ...). deps уже в детерминированном порядке.
func combineDigest(content project.Digest, deps ...project.Digest) project.Digest {
	return project.Combine(content, deps...)
}

// databaseDigest returns the container digest, hashing the encoded tables
// for databases built in memory.
func databaseDigest(db *winmd.Database) project.Digest {
	if d := db.Digest(); d != (winmd.Digest{}) {
		return project.Digest(d)
	}
	var buf bytes.Buffer
	if err := db.Encode(&buf); err != nil {
		return project.HashStrings(db.Name)
	}
	return sha256.Sum256(buf.Bytes())
}

// contentDigest covers what a module's output depends on besides its
// dependencies: the generator build, its namespaces, the output-relevant
// settings and every metadata container.
func contentDigest(m *project.Module, dbs []*winmd.Database, s *settings.Settings) project.Digest {
	parts := make([]string, 0, len(m.Namespaces)+5)
	parts = append(parts, generatorID(), "module="+m.Name)
	if m.Support {
		parts = append(parts, "support")
	}
	parts = append(parts, m.Namespaces...)
	parts = append(parts, s.Fingerprint())
	content := project.HashStrings(parts...)
	dbDigests := make([]project.Digest, len(dbs))
	for i, db := range dbs {
		dbDigests[i] = databaseDigest(db)
	}
	return combineDigest(content, dbDigests...)
}

// ComputeModuleDigests fills Module.Digest. order must list dependencies
// before dependents.
func ComputeModuleDigests(order []*project.Module, dbs []*winmd.Database, s *settings.Settings) {
	byName := make(map[string]*project.Module, len(order))
	for _, m := range order {
		deps := make([]project.Digest, 0, len(m.Deps))
		for _, dep := range m.Deps {
			if d, ok := byName[dep]; ok {
				deps = append(deps, d.Digest)
			}
		}
		m.Digest = combineDigest(contentDigest(m, dbs, s), deps...)
		byName[m.Name] = m
	}
}
