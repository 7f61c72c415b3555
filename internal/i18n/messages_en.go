package i18n

var messagesEN = map[string]string{
	// common
	"login":    "Login",
	"register": "Register",
	"logout":   "Logout",
	"username": "Username",
	"password": "Password",
	"email":    "Email",
	"submit":   "Submit",
	"cancel":   "Cancel",
	"save":     "Save",
	"delete":   "Delete",
	"edit":     "Edit",
	"create":   "Create",
	"search":   "Search",
	"loading":  "Loading...",
	"error":    "Error",
	"success":  "Success",
	"warning":  "Warning",
	"info":     "Info",
	"language": "Language",

	// navigation
	"home":          "Home",
	"models":        "Models",
	"projects":      "Projects",
	"docs":          "Documentation",
	"documentation": "Documentation",
	"examples":      "Examples",
	"profile":       "Profile",
	"settings":      "Settings",
	"admin":         "Admin",
	"welcome":       "Welcome to AI CodeHub",

	// auth
	"login_success":        "Login successful!",
	"login_failed":         "Login failed. Please check your credentials.",
	"login_error":          "An error occurred during login. Please try again.",
	"register_success":     "Registration successful! Please login.",
	"register_failed":      "Registration failed. Please try again.",
	"register_error":       "An error occurred during registration. Please try again.",
	"logout_success":       "Logged out successfully",
	"session_expired":      "Your session has expired. Please log in again.",
	"no_account":           "Don't have an account?",
	"sign_up":              "Sign up",
	"signup":               "Sign up",
	"already_have_account": "Already have an account?",
	"sign_in":              "Sign in",

	// models
	"model_name":              "Model Name",
	"model_type":              "Model Type",
	"model_version":           "Version",
	"model_status":            "Status",
	"model_actions":           "Actions",
	"model_description":       "Description",
	"model_framework":         "Framework",
	"model_task_type":         "Task Type",
	"model_created_by":        "Created By",
	"model_created_at":        "Created At",
	"model_file_size":         "File Size",
	"model_file":              "Model File",
	"no_models":               "No models found",
	"no_description":          "No description",
	"all_frameworks":          "All frameworks",
	"all_tasks":               "All tasks",
	"upload_model":            "Upload Model",
	"create_model":            "Create Model",
	"edit_model":              "Edit Model",
	"delete_model":            "Delete Model",
	"update_model":            "Update Model",
	"model_details":           "Model Details",
	"export_models":           "Export",
	"model_created":           "Model created successfully",
	"model_uploaded":          "Model uploaded successfully",
	"model_updated":           "Model updated successfully",
	"model_deleted":           "Model deleted successfully",
	"models_load_failed":      "Failed to load models",
	"model_load_failed":       "Failed to load model details",
	"model_upload_failed":     "Failed to upload model",
	"model_update_failed":     "Failed to update model",
	"model_delete_failed":     "Failed to delete model",
	"model_nothing_to_update": "Nothing to update",
	"model_export_failed":     "Failed to export models",
	"confirm_delete_model":    "Are you sure you want to delete this model?",

	// projects
	"project_name":        "Project Name",
	"project_description": "Description",
	"project_status":      "Status",
	"project_actions":     "Actions",
	"no_projects":         "No projects found",
	"create_project":      "Create Project",
	"edit_project":        "Edit Project",
	"delete_project":      "Delete Project",
	"project_created":     "Project created successfully",
	"project_updated":     "Project updated successfully",
	"project_deleted":     "Project deleted successfully",
	"status_planning":     "Planning",
	"status_in_progress":  "In Progress",
	"status_completed":    "Completed",
	"status_on_hold":      "On Hold",
	"confirm_delete":      "Are you sure you want to delete this project?",
	"project_error":       "An error occurred while processing the project",

	// examples page
	"example_title":    "Code Examples",
	"model_loading":    "Model Loading Example",
	"gpu_acceleration": "GPU Acceleration Example",
	"basic":            "Basic",
	"performance":      "Performance",
	"optimization":     "Optimization",

	"search_placeholder": "Search models...",
	"back_to_models":     "Back to models",
	"not_found":          "Page not found",
	"generic_error":      "An error occurred. Please try again.",
	"csrf_failed":        "Your form has expired. Please try again.",
}
