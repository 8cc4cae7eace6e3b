package mariadb

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/sirupsen/logrus"
)

var (
	clientLib uintptr
	initOnce  sync.Once
	initErr   error
)

// libmariadb function pointers - populated by purego
var (
	mysqlServerInit        func(argc int32, argv uintptr, groups uintptr) int32
	mysqlServerEnd         func()
	mysqlInit              func(mysql mysqlHandle) mysqlHandle
	mysqlOptions           func(mysql mysqlHandle, option int32, arg unsafe.Pointer) int32
	mysqlRealConnect       func(mysql mysqlHandle, host, user, passwd, db *byte, port uint32, unixSocket *byte, clientFlag uint64) mysqlHandle
	mysqlClose             func(mysql mysqlHandle)
	mysqlAutocommit        func(mysql mysqlHandle, mode uint8) int8
	mysqlErrno             func(mysql mysqlHandle) uint32
	mysqlError             func(mysql mysqlHandle) string
	mysqlSQLState          func(mysql mysqlHandle) string
	mysqlRealQuery         func(mysql mysqlHandle, query *byte, length uint64) int32
	mysqlFieldCount        func(mysql mysqlHandle) uint32
	mysqlAffectedRows      func(mysql mysqlHandle) uint64
	mysqlInsertID          func(mysql mysqlHandle) uint64
	mysqlStoreResult       func(mysql mysqlHandle) resultHandle
	mysqlNumFields         func(res resultHandle) uint32
	mysqlNumRows           func(res resultHandle) uint64
	mysqlFetchFields       func(res resultHandle) uintptr
	mysqlFetchRow          func(res resultHandle) uintptr
	mysqlFetchLengths      func(res resultHandle) uintptr
	mysqlDataSeek          func(res resultHandle, offset uint64)
	mysqlRowTell           func(res resultHandle) uintptr
	mysqlFreeResult        func(res resultHandle)
	mysqlStmtInit          func(mysql mysqlHandle) stmtHandle
	mysqlStmtPrepare       func(stmt stmtHandle, query *byte, length uint64) int32
	mysqlStmtExecute       func(stmt stmtHandle) int32
	mysqlStmtAttrSet       func(stmt stmtHandle, attr int32, value unsafe.Pointer) int8
	mysqlStmtStoreResult   func(stmt stmtHandle) int32
	mysqlStmtFieldCount    func(stmt stmtHandle) uint32
	mysqlStmtResultMeta    func(stmt stmtHandle) resultHandle
	mysqlStmtBindResult    func(stmt stmtHandle, binds unsafe.Pointer) int8
	mysqlStmtFetch         func(stmt stmtHandle) int32
	mysqlStmtDataSeek      func(stmt stmtHandle, offset uint64)
	mysqlStmtRowTell       func(stmt stmtHandle) uintptr
	mysqlStmtNumRows       func(stmt stmtHandle) uint64
	mysqlStmtAffectedRows  func(stmt stmtHandle) uint64
	mysqlStmtInsertID      func(stmt stmtHandle) uint64
	mysqlStmtFreeResult    func(stmt stmtHandle) int8
	mysqlStmtClose         func(stmt stmtHandle) int8
	mysqlStmtErrno         func(stmt stmtHandle) uint32
	mysqlStmtError         func(stmt stmtHandle) string
	mysqlStmtSQLState      func(stmt stmtHandle) string
)

// getLibraryPath returns the platform-specific client library path.
// An explicit path wins, then the GOMARIA_LIBRARY_PATH environment variable.
func getLibraryPath(override string) string {
	if override != "" {
		return override
	}
	if path := os.Getenv("GOMARIA_LIBRARY_PATH"); path != "" {
		return path
	}

	switch runtime.GOOS {
	case "windows":
		return "libmariadb.dll"
	case "darwin":
		paths := []string{
			"/opt/homebrew/lib/mariadb/libmariadb.3.dylib", // Apple Silicon Homebrew
			"/usr/local/lib/mariadb/libmariadb.3.dylib",    // Intel Homebrew
			"/opt/homebrew/opt/mariadb-connector-c/lib/mariadb/libmariadb.3.dylib",
			"/usr/local/opt/mariadb-connector-c/lib/mariadb/libmariadb.3.dylib",
		}
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		return "libmariadb.3.dylib"
	default:
		return "libmariadb.so.3"
	}
}

// initMariaDB loads the client library and registers all functions.
// Only the first call decides which library is loaded.
func initMariaDB(libPath string) error {
	initOnce.Do(func() {
		path := getLibraryPath(libPath)

		clientLib, initErr = loadClientLibrary(path)
		if initErr != nil {
			initErr = fmt.Errorf("failed to load MariaDB client library %q: %w (set GOMARIA_LIBRARY_PATH to override)", path, initErr)
			return
		}

		// Library lifetime
		purego.RegisterLibFunc(&mysqlServerInit, clientLib, "mysql_server_init")
		purego.RegisterLibFunc(&mysqlServerEnd, clientLib, "mysql_server_end")

		// Connection
		purego.RegisterLibFunc(&mysqlInit, clientLib, "mysql_init")
		purego.RegisterLibFunc(&mysqlOptions, clientLib, "mysql_options")
		purego.RegisterLibFunc(&mysqlRealConnect, clientLib, "mysql_real_connect")
		purego.RegisterLibFunc(&mysqlClose, clientLib, "mysql_close")
		purego.RegisterLibFunc(&mysqlAutocommit, clientLib, "mysql_autocommit")
		purego.RegisterLibFunc(&mysqlErrno, clientLib, "mysql_errno")
		purego.RegisterLibFunc(&mysqlError, clientLib, "mysql_error")
		purego.RegisterLibFunc(&mysqlSQLState, clientLib, "mysql_sqlstate")
		purego.RegisterLibFunc(&mysqlRealQuery, clientLib, "mysql_real_query")
		purego.RegisterLibFunc(&mysqlFieldCount, clientLib, "mysql_field_count")
		purego.RegisterLibFunc(&mysqlAffectedRows, clientLib, "mysql_affected_rows")
		purego.RegisterLibFunc(&mysqlInsertID, clientLib, "mysql_insert_id")

		// Stored (text protocol) results
		purego.RegisterLibFunc(&mysqlStoreResult, clientLib, "mysql_store_result")
		purego.RegisterLibFunc(&mysqlNumFields, clientLib, "mysql_num_fields")
		purego.RegisterLibFunc(&mysqlNumRows, clientLib, "mysql_num_rows")
		purego.RegisterLibFunc(&mysqlFetchFields, clientLib, "mysql_fetch_fields")
		purego.RegisterLibFunc(&mysqlFetchRow, clientLib, "mysql_fetch_row")
		purego.RegisterLibFunc(&mysqlFetchLengths, clientLib, "mysql_fetch_lengths")
		purego.RegisterLibFunc(&mysqlDataSeek, clientLib, "mysql_data_seek")
		purego.RegisterLibFunc(&mysqlRowTell, clientLib, "mysql_row_tell")
		purego.RegisterLibFunc(&mysqlFreeResult, clientLib, "mysql_free_result")

		// Prepared statements (binary protocol)
		purego.RegisterLibFunc(&mysqlStmtInit, clientLib, "mysql_stmt_init")
		purego.RegisterLibFunc(&mysqlStmtPrepare, clientLib, "mysql_stmt_prepare")
		purego.RegisterLibFunc(&mysqlStmtExecute, clientLib, "mysql_stmt_execute")
		purego.RegisterLibFunc(&mysqlStmtAttrSet, clientLib, "mysql_stmt_attr_set")
		purego.RegisterLibFunc(&mysqlStmtStoreResult, clientLib, "mysql_stmt_store_result")
		purego.RegisterLibFunc(&mysqlStmtFieldCount, clientLib, "mysql_stmt_field_count")
		purego.RegisterLibFunc(&mysqlStmtResultMeta, clientLib, "mysql_stmt_result_metadata")
		purego.RegisterLibFunc(&mysqlStmtBindResult, clientLib, "mysql_stmt_bind_result")
		purego.RegisterLibFunc(&mysqlStmtFetch, clientLib, "mysql_stmt_fetch")
		purego.RegisterLibFunc(&mysqlStmtDataSeek, clientLib, "mysql_stmt_data_seek")
		purego.RegisterLibFunc(&mysqlStmtRowTell, clientLib, "mysql_stmt_row_tell")
		purego.RegisterLibFunc(&mysqlStmtNumRows, clientLib, "mysql_stmt_num_rows")
		purego.RegisterLibFunc(&mysqlStmtAffectedRows, clientLib, "mysql_stmt_affected_rows")
		purego.RegisterLibFunc(&mysqlStmtInsertID, clientLib, "mysql_stmt_insert_id")
		purego.RegisterLibFunc(&mysqlStmtFreeResult, clientLib, "mysql_stmt_free_result")
		purego.RegisterLibFunc(&mysqlStmtClose, clientLib, "mysql_stmt_close")
		purego.RegisterLibFunc(&mysqlStmtErrno, clientLib, "mysql_stmt_errno")
		purego.RegisterLibFunc(&mysqlStmtError, clientLib, "mysql_stmt_error")
		purego.RegisterLibFunc(&mysqlStmtSQLState, clientLib, "mysql_stmt_sqlstate")
	})
	return initErr
}

// The client library keeps process-wide state. It is initialised when the
// first connection acquires it and torn down when the last one releases it.
var (
	libMu   sync.Mutex
	libRefs int
)

func acquireLibrary(log logrus.FieldLogger, libPath string) error {
	if err := initMariaDB(libPath); err != nil {
		return err
	}

	libMu.Lock()
	defer libMu.Unlock()

	if libRefs == 0 {
		if rc := mysqlServerInit(0, 0, 0); rc != 0 {
			return fmt.Errorf("mariadb: client library initialisation failed (code %d)", rc)
		}
		log.Debug("mariadb: client library initialised")
	}
	libRefs++
	return nil
}

func releaseLibrary(log logrus.FieldLogger) {
	libMu.Lock()
	defer libMu.Unlock()

	if libRefs == 0 {
		return
	}
	libRefs--
	if libRefs == 0 {
		mysqlServerEnd()
		log.Debug("mariadb: client library released")
	}
}

// cString returns a NUL-terminated copy of s, or nil for an empty string so
// that the library applies its default.
func cString(s string) *byte {
	if s == "" {
		return nil
	}
	b := append([]byte(s), 0)
	return &b[0]
}

// queryBytes returns the query as a byte pointer and its length. The
// pointer is valid for an empty query too.
func queryBytes(query string) (*byte, uint64) {
	b := append([]byte(query), 0)
	return &b[0], uint64(len(query))
}

// goStringN copies n bytes of C memory at p into a Go string.
func goStringN(p uintptr, n uint32) string {
	if p == 0 || n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
