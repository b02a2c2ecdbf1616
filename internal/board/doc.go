// Package board implements the ordered collection behind kanban boards and calendars.
//
// Every operation takes a model.Board and returns a new snapshot plus a changed flag.
// Inputs are never modified in place; when changed is false the input is returned as is.
//
// A foreign item id is placed in at most one container at a time. AddItem moves an
// already-placed item (keeping its color, priority and memo) rather than duplicating it.
package board
