package database_test

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database/ldb"
)

// backends lists the database implementations every test in this package
// runs against, by name.
var backends = map[string]func(path string) (database.Database, error){
	"ldb": func(path string) (database.Database, error) {
		return ldb.NewLevelDB(path, 8)
	},
}

// testForAllDatabaseTypes runs testFunc against a fresh, empty database of
// every type in backends.
func testForAllDatabaseTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, db database.Database, testName string)) {

	for backendName, open := range backends {
		path, err := ioutil.TempDir("", testName)
		if err != nil {
			t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
		}
		db, err := open(path)
		if err != nil {
			os.RemoveAll(path)
			t.Fatalf("%s: opening a %s database failed: %s", testName, backendName, err)
		}

		testFunc(t, db, backendName+": "+testName)

		err = db.Close()
		os.RemoveAll(path)
		if err != nil {
			t.Fatalf("%s: closing the %s database failed: %s", testName, backendName, err)
		}
	}
}
