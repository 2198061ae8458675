// Package actions serves action forms and runs actions submitted from them.
//
// A run resolves the action from its identifier, loads the selected records,
// calls the action and turns its response into exactly one of a 422 form
// re-render, a file download, or a redirect carrying flash notices.
package actions
