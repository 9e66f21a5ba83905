package domain_test

import (
	"strings"
	"testing"

	"shipyard/testutil"
)

// The design model is imported by codecs, stores and the CLI; it must never
// depend on them.
func TestDomainStaysFreeOfInternalPackages(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "pkg/domain must not import internal packages")
	testutil.AssertNoTransitiveDependency(t, ".", func(path string) bool {
		return strings.HasPrefix(path, "shipyard/") && testutil.InternalImportForbidden(path)
	}, "pkg/domain must not depend on shipyard internals")
}

func TestEnginePackagesStayFreeOfStorage(t *testing.T) {
	for _, dir := range []string{"../../internal/document", "../../internal/migrate", "../../internal/history", "../../internal/wire", "../../internal/calc"} {
		testutil.AssertNoDirectImports(t, dir, testutil.StorageImportForbidden, dir+" must reach storage through interfaces")
	}
}
