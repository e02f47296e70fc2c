// Package idlesession enforces an inactivity timeout on one authenticated
// tab.
//
// A Manager persists a small Record (login time, last activity, user id) in
// a tab-scoped Store and keeps two timers armed relative to the last
// activity: a warning at Timeout-WarningLead and a logout at Timeout. Any
// recognised activity cancels and re-arms both. When the logout timer fires
// the record is removed, the Notifier is told and the host's LogoutFunc
// runs, in that order.
//
//	m := idlesession.New(
//	    idlesession.WithStore(idlesession.NewPrefixStore(shared, "tab:"+id+":")),
//	    idlesession.WithNotifier(notifier),
//	    idlesession.WithLogout(func(ctx context.Context) { auth.SignOut(ctx, token) }),
//	    idlesession.WithLogger(log),
//	)
//	m.StartSession(ctx, user.ID)
//	...
//	m.HandleActivity(ctx, idlesession.ActivityKeyPress)
//
// The defaults are a one hour timeout with a five minute warning lead.
// Storage failures never surface to callers: reads degrade to "no session"
// and writes are logged.
//
// Tests drive a Manager with the deterministic clock from the idletest
// subpackage.
package idlesession
