package tool

import (
	"context"

	"binna-crm/internal/usecase/crm"
)

// noteSpecs binds the note tools. Listing returns trimmed summaries;
// full content comes from get_note_by_id.
func noteSpecs(c *crm.Notes) []FuncSpec {
	return []FuncSpec{
		{
			Name: "create_note",
			Doc: `Create a free-form note under a customer company.

Args:
- customer_id: the id of the customer the note belongs to
- title: short title of the note
- content: the note text

Returns:
- dict: the created note`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt},
				{Name: "title", Type: TypeString},
				{Name: "content", Type: TypeString},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Create(ctx, userID, args.Int64("customer_id"), args.String("title"), args.String("content"))
			},
		},
		{
			Name: "get_all_notes",
			Doc: `List note titles, optionally filtered by customer company. Use get_note_by_id to read a note's content.

Args:
- customer_id: only return notes of this customer; omit for all notes

Returns:
- list: the matching notes with id, customer and title only`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.ListSummaries(ctx, userID, args.Int64("customer_id"))
			},
		},
		{
			Name: "get_all_notes_with_content",
			Doc: `List notes with their full content, optionally filtered by customer company. Prefer get_all_notes unless the content of many notes is needed at once.

Args:
- customer_id: only return notes of this customer; omit for all notes

Returns:
- list: the matching notes including their content`,
			Params: []ParamSpec{
				{Name: "customer_id", Type: TypeInt, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.List(ctx, userID, args.Int64("customer_id"))
			},
		},
		{
			Name: "get_note_by_id",
			Doc: `Fetch a single note with its full content by its numeric id.

Args:
- note_id: the id of the note

Returns:
- dict: the note, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "note_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Get(ctx, userID, args.Int64("note_id"))
			},
		},
		{
			Name: "update_note",
			Doc: `Update the title or content of a note. Only the provided fields change.

Args:
- note_id: the id of the note to update
- title: the new title
- content: the new content

Returns:
- dict: the updated note, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "note_id", Type: TypeInt},
				{Name: "title", Type: TypeString, Optional: true},
				{Name: "content", Type: TypeString, Optional: true},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Update(ctx, userID, args.Int64("note_id"), crm.NoteUpdate{
					Title:   args.OptString("title"),
					Content: args.OptString("content"),
				})
			},
		},
		{
			Name: "delete_note",
			Doc: `Delete a note by id.

Args:
- note_id: the id of the note to delete

Returns:
- dict: the deleted note, or nothing when the id does not exist`,
			Params: []ParamSpec{
				{Name: "note_id", Type: TypeInt},
			},
			Call: func(ctx context.Context, userID int64, args Args) (any, error) {
				return c.Delete(ctx, userID, args.Int64("note_id"))
			},
		},
	}
}
