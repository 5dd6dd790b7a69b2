package scheduler

import (
	"bytemc/choice"
	"bytemc/config"
	"bytemc/state"
	"bytemc/thread"
)

// The standard scheduling policy.
//
// Inside an atomic section no choice generators are created, except when
// the running thread blocks or waits. The section is then broken and the
// engine has to pick another thread. Monitor exit, notifyAll and the exit of
// synchronized methods are left movers and never create choices. With
// cg.threads.break_all thread start, yield and sleep become scheduling
// points as well.
type DefaultFactory struct {
	threads  *thread.ThreadList
	ss       *state.SystemState
	breakAll bool

	filters   []Filter
	observers []Observer
}

func NewDefaultFactory(cfg *config.Config, threads *thread.ThreadList, ss *state.SystemState) *DefaultFactory {
	return &DefaultFactory{
		threads:  threads,
		ss:       ss,
		breakAll: cfg.Bool(config.BreakAll, false),
	}
}

func (f *DefaultFactory) AddFilter(filter Filter) {
	f.filters = append(f.filters, filter)
}

func (f *DefaultFactory) AddObserver(o Observer) {
	f.observers = append(f.observers, o)
}

func (f *DefaultFactory) IsBreakAll() bool {
	return f.breakAll
}

func (f *DefaultFactory) filter(id string, list []*thread.ThreadInfo) []*thread.ThreadInfo {
	for _, filter := range f.filters {
		list = filter(id, list)
	}
	return list
}

func (f *DefaultFactory) report(id string, cg choice.ChoiceGenerator) choice.ChoiceGenerator {
	for _, o := range f.observers {
		o.ObserveDecision(id, cg)
	}
	return cg
}

func (f *DefaultFactory) runnables(id string) []*thread.ThreadInfo {
	return f.filter(id, f.threads.RunnableThreads())
}

// Returns a choice over the runnable threads if there is more than one
func (f *DefaultFactory) runnableCG(id string) choice.ChoiceGenerator {
	if f.threads.RunnableThreadCount() > 1 {
		return choice.NewThreadFromSet(id, f.runnables(id), true)
	}
	return nil
}

func (f *DefaultFactory) syncCG(id string, obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	return f.runnableCG(id)
}

func (f *DefaultFactory) CreateSyncMethodEnterCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	return f.CreateMonitorEnterCG(obj, ti)
}

func (f *DefaultFactory) CreateSyncMethodExitCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	return f.report(MonitorExitId, nil)
}

func (f *DefaultFactory) CreateMonitorEnterCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	if ti.IsBlocked() {
		// the engine has to pick a successor
		if f.ss.IsAtomic() {
			f.ss.SetBlockedInAtomicSection()
		}
		return f.report(MonitorEnterId, choice.NewThreadFromSet(MonitorEnterId, f.runnables(MonitorEnterId), true))
	}
	if f.ss.IsAtomic() {
		return f.report(MonitorEnterId, nil)
	}
	return f.report(MonitorEnterId, f.syncCG(MonitorEnterId, obj, ti))
}

func (f *DefaultFactory) CreateMonitorExitCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	return f.report(MonitorExitId, nil)
}

func (f *DefaultFactory) CreateWaitCG(obj Object, ti *thread.ThreadInfo, timeout int64) choice.ChoiceGenerator {
	if f.ss.IsAtomic() {
		f.ss.SetBlockedInAtomicSection()
	}
	return f.report(WaitId, choice.NewThreadFromSet(WaitId, f.runnables(WaitId), true))
}

// Only the identity of the notified thread is nondeterministic, so the
// choice is over the waiters and is not a scheduling point
func (f *DefaultFactory) CreateNotifyCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	if f.ss.IsAtomic() {
		return f.report(NotifyId, nil)
	}
	waiters := obj.Monitor().WaitingThreads()
	if len(waiters) < 2 {
		return f.report(NotifyId, nil)
	}
	return f.report(NotifyId, choice.NewThreadFromSet(NotifyId, f.filter(NotifyId, waiters), false))
}

func (f *DefaultFactory) CreateNotifyAllCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	return f.report(NotifyAllId, nil)
}

func (f *DefaultFactory) CreateSharedFieldAccessCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	if f.ss.IsAtomic() {
		return f.report(SharedFieldId, nil)
	}
	return f.report(SharedFieldId, f.syncCG(SharedFieldId, obj, ti))
}

func (f *DefaultFactory) CreateSharedArrayAccessCG(obj Object, ti *thread.ThreadInfo) choice.ChoiceGenerator {
	if f.ss.IsAtomic() {
		return f.report(SharedArrayId, nil)
	}
	return f.report(SharedArrayId, f.syncCG(SharedArrayId, obj, ti))
}

func (f *DefaultFactory) breakAllCG(id string) choice.ChoiceGenerator {
	if !f.breakAll || f.ss.IsAtomic() {
		return f.report(id, nil)
	}
	return f.report(id, f.runnableCG(id))
}

func (f *DefaultFactory) CreateThreadStartCG(newThread *thread.ThreadInfo) choice.ChoiceGenerator {
	return f.breakAllCG(StartId)
}

func (f *DefaultFactory) CreateThreadYieldCG(yieldThread *thread.ThreadInfo) choice.ChoiceGenerator {
	return f.breakAllCG(YieldId)
}

// Time is not modeled, a sleep is a yield
func (f *DefaultFactory) CreateThreadSleepCG(sleepThread *thread.ThreadInfo, millis int64, nanos int) choice.ChoiceGenerator {
	return f.breakAllCG(SleepId)
}

func (f *DefaultFactory) CreateInterruptCG(interruptedThread *thread.ThreadInfo) choice.ChoiceGenerator {
	if f.ss.IsAtomic() {
		return f.report(InterruptId, nil)
	}
	return f.report(InterruptId, f.runnableCG(InterruptId))
}

// Returns a choice over the remaining runnable threads while any thread is
// alive. The choice may be empty if all of them are blocked. Returns nil
// once no thread is alive, which makes the state a candidate end state.
func (f *DefaultFactory) CreateThreadTerminateCG(terminateThread *thread.ThreadInfo) choice.ChoiceGenerator {
	if !f.threads.HasAnyAliveThread() {
		return f.report(TerminateId, nil)
	}
	candidates := f.filter(TerminateId, f.threads.RunnableThreadsWithout(terminateThread))
	return f.report(TerminateId, choice.NewThreadFromSet(TerminateId, candidates, true))
}
