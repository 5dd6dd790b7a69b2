// Package scheduler decides where thread interleavings have to be explored.
//
// A Factory is asked by the interpreter at every scheduling relevant
// instruction. It returns a choice generator over the threads that may run
// next, or nil if the instruction introduces no nondeterminism. A Factory
// never changes the state of threads or locks, the calling instruction does.
package scheduler

import (
	"bytemc/choice"
	"bytemc/monitor"
	"bytemc/thread"
)

// Ids of the choice generators created by the factory
const (
	MonitorEnterId = "monitorEnter"
	MonitorExitId  = "monitorExit"
	WaitId         = "wait"
	NotifyId       = "notify"
	NotifyAllId    = "notifyAll"
	SharedFieldId  = "sharedField"
	SharedArrayId  = "sharedArray"
	StartId        = "start"
	YieldId        = "yield"
	SleepId        = "sleep"
	InterruptId    = "interrupt"
	TerminateId    = "terminate"
)

// An object with a lock, e.g. a heap object or the statics of a class
type Object interface {
	Monitor() *monitor.Monitor
}

type Factory interface {
	CreateSyncMethodEnterCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator
	CreateSyncMethodExitCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator

	CreateMonitorEnterCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator
	CreateMonitorExitCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator

	CreateWaitCG(obj Object, ti *thread.ThreadInfo, timeout int64) choice.ChoiceGenerator
	CreateNotifyCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator
	CreateNotifyAllCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator

	CreateSharedFieldAccessCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator
	CreateSharedArrayAccessCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator

	CreateThreadStartCG(newThread *thread.ThreadInfo) choice.ChoiceGenerator
	CreateThreadYieldCG(yieldThread *thread.ThreadInfo) choice.ChoiceGenerator
	CreateThreadSleepCG(sleepThread *thread.ThreadInfo, millis int64, nanos int) choice.ChoiceGenerator
	CreateInterruptCG(interruptedThread *thread.ThreadInfo) choice.ChoiceGenerator
	CreateThreadTerminateCG(terminateThread *thread.ThreadInfo) choice.ChoiceGenerator
}

// Post-processes the candidate threads of a decision
type Filter func(id string, threads []*thread.ThreadInfo) []*thread.ThreadInfo

// Reports every decision of a factory.
// cg is nil if no choice generator was created.
type Observer interface {
	ObserveDecision(id string, cg choice.ChoiceGenerator)
}
