package domain

import "strings"

// Permission is a capability token of the form "<resource>.<action>".
type Permission string

const (
	// Articles
	PermArticlesView    Permission = "articles.view"
	PermArticlesCreate  Permission = "articles.create"
	PermArticlesEdit    Permission = "articles.edit"
	PermArticlesDelete  Permission = "articles.delete"
	PermArticlesPublish Permission = "articles.publish"

	// Users
	PermUsersView   Permission = "users.view"
	PermUsersCreate Permission = "users.create"
	PermUsersEdit   Permission = "users.edit"
	PermUsersDelete Permission = "users.delete"

	// Categories
	PermCategoriesView   Permission = "categories.view"
	PermCategoriesCreate Permission = "categories.create"
	PermCategoriesEdit   Permission = "categories.edit"
	PermCategoriesDelete Permission = "categories.delete"

	// Media
	PermMediaView   Permission = "media.view"
	PermMediaUpload Permission = "media.upload"
	PermMediaDelete Permission = "media.delete"

	// Comments
	PermCommentsView     Permission = "comments.view"
	PermCommentsModerate Permission = "comments.moderate"
	PermCommentsDelete   Permission = "comments.delete"

	// Settings
	PermSettingsView     Permission = "settings.view"
	PermSettingsEdit     Permission = "settings.edit"
	PermSettingsAdvanced Permission = "settings.advanced"

	// Analytics
	PermAnalyticsView   Permission = "analytics.view"
	PermAnalyticsExport Permission = "analytics.export"

	// System
	PermSystemLogs        Permission = "system.logs"
	PermSystemBackup      Permission = "system.backup"
	PermSystemMaintenance Permission = "system.maintenance"
)

var allPermissions = [...]Permission{
	PermArticlesView,
	PermArticlesCreate,
	PermArticlesEdit,
	PermArticlesDelete,
	PermArticlesPublish,
	PermUsersView,
	PermUsersCreate,
	PermUsersEdit,
	PermUsersDelete,
	PermCategoriesView,
	PermCategoriesCreate,
	PermCategoriesEdit,
	PermCategoriesDelete,
	PermMediaView,
	PermMediaUpload,
	PermMediaDelete,
	PermCommentsView,
	PermCommentsModerate,
	PermCommentsDelete,
	PermSettingsView,
	PermSettingsEdit,
	PermSettingsAdvanced,
	PermAnalyticsView,
	PermAnalyticsExport,
	PermSystemLogs,
	PermSystemBackup,
	PermSystemMaintenance,
}

// AllPermissions returns the full permission universe in a stable order,
// grouped by resource family.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions[:])
	return out
}

// ParsePermission converts an external token into a Permission.
func ParsePermission(s string) (Permission, bool) {
	for _, p := range allPermissions {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Resource returns the family part of the token ("articles" for "articles.edit").
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ".")
	return resource
}

func (p Permission) String() string { return string(p) }
