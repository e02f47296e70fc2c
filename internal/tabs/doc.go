// Package tabs keeps one idle-session manager per browser tab.
//
// A tab is opened after a successful sign-in and identified by a uuid the
// client stores in its own sessionStorage. The tab's session record and its
// metadata live under the "tab:<id>:" prefix of a shared store, so a tab
// survives a process restart when the store does: Get restores it lazily
// and resumes the idle window where it stopped.
//
// Warning, dismissal, timeout and logout signals are published as Notice
// values to a broadcast hub under the tab id. When the idle window runs out
// the tab is signed out of the backend and dropped from the registry.
package tabs
