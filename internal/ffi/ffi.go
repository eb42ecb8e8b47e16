// Package ffi implements the minimal foreign-function surface a host
// language embeds (SPEC_FULL.md §6): execute_handler, free_result, and
// version. Grounded on original_source/.../pforge-runtime/src/lib.rs's
// extern "C" boundary, with the CString/CBytes/unsafe.Pointer conversions
// adapted from EdwinZhanCN-Lumilio-Photos/server/internal/utils/raw's cgo
// usage. The boundary is intentionally thin: every real decision (name
// validation, dispatch, error classification) lives in pure-Go dispatch
// below so it can be exercised without a C caller.
package ffi

/*
#include <stdlib.h>

typedef struct {
	int code;
	unsigned char* data;
	long long data_len;
	char* error;
} ForgeResult;
*/
import "C"

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"
	"unsafe"

	"github.com/paiml/forge-go/internal/forgerr"
	"github.com/paiml/forge-go/internal/server"
)

// Result codes returned in ForgeResult.code. codeSuccess is the only
// non-negative value; the rest distinguish the failure classes the
// foreign-function contract calls out by name.
const (
	codeSuccess            = 0
	codeNullPointer        = -1
	codeInvalidUTF8        = -2
	codeSerializationError = -3
	codeNotBound           = -4
	codeHandlerFailure     = -5
)

const version = "0.1.0"

var (
	mu  sync.RWMutex
	srv *server.Server
)

// Bind attaches the Server ExecuteHandler routes calls through. Host Go
// code calls this once, after building and populating the Server, before
// the cgo runtime starts servicing calls from the foreign caller.
func Bind(s *server.Server) {
	mu.Lock()
	defer mu.Unlock()
	srv = s
}

func currentServer() (*server.Server, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return srv, srv != nil
}

// dispatch is the pure-Go core ExecuteHandler wraps: it validates the
// handler name and payload, then routes through the bound Server. Kept
// separate from the cgo-exported function so it can be unit tested without
// a C caller.
func dispatch(ctx context.Context, name string, payload []byte) (data []byte, code int, message string) {
	s, ok := currentServer()
	if !ok {
		return nil, codeNotBound, "no server bound: call Bind before ExecuteHandler"
	}
	if !utf8.ValidString(name) {
		return nil, codeInvalidUTF8, "handler name is not valid UTF-8"
	}
	if len(payload) > 0 && !utf8.Valid(payload) {
		return nil, codeInvalidUTF8, "payload is not valid UTF-8"
	}

	out, err := s.Dispatch(ctx, name, payload)
	if err != nil {
		failureCode := codeHandlerFailure
		var fe *forgerr.Error
		if errors.As(err, &fe) && fe.Kind == forgerr.KindSerializationFailure {
			failureCode = codeSerializationError
		}
		return nil, failureCode, err.Error()
	}
	return out, codeSuccess, ""
}

// ExecuteHandler is the exported entry point: name is a NUL-terminated C
// string, payload/payloadLen a byte buffer owned by the caller for the
// duration of the call. The returned ForgeResult's data field, when
// non-nil, is owned by the callee until released via FreeResult.
//
//export ExecuteHandler
func ExecuteHandler(name *C.char, payload *C.char, payloadLen C.int) C.ForgeResult {
	if name == nil {
		return newErrorResult(codeNullPointer, "handler name is null")
	}

	var goPayload []byte
	if payload != nil && payloadLen > 0 {
		goPayload = C.GoBytes(unsafe.Pointer(payload), payloadLen)
	}

	data, code, message := dispatch(context.Background(), C.GoString(name), goPayload)
	if code != codeSuccess {
		return newErrorResult(code, message)
	}
	return newSuccessResult(data)
}

func newSuccessResult(data []byte) C.ForgeResult {
	var cData *C.uchar
	if len(data) > 0 {
		cData = (*C.uchar)(C.CBytes(data))
	}
	return C.ForgeResult{code: C.int(codeSuccess), data: cData, data_len: C.longlong(len(data)), error: nil}
}

func newErrorResult(code int, message string) C.ForgeResult {
	return C.ForgeResult{code: C.int(code), data: nil, data_len: 0, error: C.CString(message)}
}

// FreeResult releases a ForgeResult's owned buffers. Must be called exactly
// once per successful ExecuteHandler result carrying a non-nil data
// pointer; calling it twice on the same result is undefined, per the
// contract's own terms.
//
//export FreeResult
func FreeResult(result C.ForgeResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// Version returns a static, caller-owned-nothing string describing the
// runtime build. The returned pointer is valid for the process lifetime and
// must not be freed.
//
//export Version
func Version() *C.char {
	return C.CString(version)
}
