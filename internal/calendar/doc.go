// Package calendar converts fixtures into iCalendar documents.
//
// Build is a pure transformation: every match becomes one VEVENT titled
// "[competition] home - away", starting at kickoff and lasting the requested
// event length. Event UIDs are derived from the fixture itself so calendar
// clients update an existing entry once its score is known.
package calendar
