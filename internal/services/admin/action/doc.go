// Package action models operator-triggered actions and the rules for running
// them.
//
// An action is registered once at startup under a canonical name, resolved per
// request from its public identifier, handed an Invocation (submitted fields,
// acting user, owning resource, selected records) and answers with a Response
// descriptor. Interpret turns that descriptor into exactly one Outcome which
// the HTTP layer emits.
package action
