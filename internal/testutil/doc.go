// Package testutil holds recording fakes of the Listener and Provider
// boundaries shared by package tests.
package testutil
