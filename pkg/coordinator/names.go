package coordinator

import (
	"io"
	"os"
	"strings"
)

// localName strips a qualified table name's store prefix, mirroring
// pkg/extractor's and pkg/loader's package-local copy of the same
// convention: "ids.public.students" -> "public.students" when storeID
// is "ids".
func localName(storeID, qualifiedName string) string {
	prefix := storeID + "."
	if strings.HasPrefix(qualifiedName, prefix) {
		return qualifiedName[len(prefix):]
	}
	return qualifiedName
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}

// copyFile duplicates a staged file byte-for-byte. Used for the graph
// store's node/edge files, which carry no per-column PII rules for the
// anonymizer to apply and so move from the extraction directory to the
// anonymized directory unchanged.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
