// Package i18n resolves the operator's language for admin pages.
package i18n
