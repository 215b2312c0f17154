//go:build darwin

package input

/*
#cgo darwin CFLAGS: -fblocks
#cgo darwin LDFLAGS: -framework CoreFoundation
#include <CoreFoundation/CoreFoundation.h>

// stopLoop queues the stop on the loop itself. A stop queued before the loop
// runs is performed on entry instead of being lost like CFRunLoopStop.
static void stopLoop(CFRunLoopRef loop) {
	CFRunLoopPerformBlock(loop, kCFRunLoopCommonModes, ^{
		CFRunLoopStop(loop);
	});
	CFRunLoopWakeUp(loop);
}

static int32_t runCurrentLoop(double seconds) {
	return (int32_t)CFRunLoopRunInMode(kCFRunLoopDefaultMode, seconds, false);
}
*/
import "C"

// CFRunLoopRunResult values
const (
	runLoopFinished = int32(C.kCFRunLoopRunFinished)
	runLoopStopped  = int32(C.kCFRunLoopRunStopped)
)

// runLoopForever is the timeout of one runCurrentLoop call in a session.
const runLoopForever = 1e10

func currentRunLoop() C.CFRunLoopRef {
	return C.CFRunLoopGetCurrent()
}

// stopRunLoop makes the next or current run of loop return.
func stopRunLoop(loop C.CFRunLoopRef) {
	C.stopLoop(loop)
}

// runCurrentLoop runs the calling thread's loop for at most seconds and
// returns the CFRunLoopRunResult.
func runCurrentLoop(seconds float64) int32 {
	return int32(C.runCurrentLoop(C.double(seconds)))
}
