// Package logger sets up the JSON slog logger used by every phrasify
// component and carries request scoped loggers and request IDs through
// context.Context, so a card request can be followed from the HTTP handler
// down to the replenish job it starts.
package logger
