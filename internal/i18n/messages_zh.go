package i18n

var messagesZH = map[string]string{
	"login":    "登录",
	"register": "注册",
	"logout":   "退出",
	"username": "用户名",
	"password": "密码",
	"email":    "邮箱",
	"submit":   "提交",
	"cancel":   "取消",
	"save":     "保存",
	"delete":   "删除",
	"edit":     "编辑",
	"create":   "创建",
	"search":   "搜索",
	"loading":  "加载中...",
	"error":    "错误",
	"success":  "成功",
	"warning":  "警告",
	"info":     "信息",
	"language": "语言",

	"home":          "首页",
	"models":        "模型",
	"projects":      "项目",
	"docs":          "文档",
	"documentation": "文档",
	"examples":      "示例",
	"profile":       "个人资料",
	"settings":      "设置",
	"admin":         "管理",
	"welcome":       "欢迎使用 AI CodeHub",

	"login_success":        "登录成功！",
	"login_failed":         "登录失败，请检查您的凭据。",
	"login_error":          "登录时发生错误，请重试。",
	"register_success":     "注册成功！请登录。",
	"register_failed":      "注册失败，请重试。",
	"register_error":       "注册时发生错误，请重试。",
	"logout_success":       "登出成功",
	"session_expired":      "会话已过期，请重新登录。",
	"no_account":           "还没有账号？",
	"sign_up":              "注册",
	"signup":               "注册",
	"already_have_account": "已有账号？",
	"sign_in":              "登录",

	"model_name":              "模型名称",
	"model_type":              "模型类型",
	"model_version":           "版本",
	"model_status":            "状态",
	"model_actions":           "操作",
	"model_description":       "描述",
	"model_framework":         "框架",
	"model_task_type":         "任务类型",
	"model_created_by":        "创建者",
	"model_created_at":        "创建时间",
	"model_file_size":         "文件大小",
	"model_file":              "模型文件",
	"no_models":               "未找到模型",
	"no_description":          "暂无描述",
	"all_frameworks":          "全部框架",
	"all_tasks":               "全部任务",
	"upload_model":            "上传模型",
	"create_model":            "创建模型",
	"edit_model":              "编辑模型",
	"delete_model":            "删除模型",
	"update_model":            "更新模型",
	"model_details":           "模型详情",
	"export_models":           "导出",
	"model_created":           "模型创建成功",
	"model_uploaded":          "模型上传成功",
	"model_updated":           "模型更新成功",
	"model_deleted":           "模型删除成功",
	"models_load_failed":      "加载模型失败",
	"model_load_failed":       "加载模型详情失败",
	"model_upload_failed":     "上传模型失败",
	"model_update_failed":     "更新模型失败",
	"model_delete_failed":     "删除模型失败",
	"model_nothing_to_update": "没有需要更新的内容",
	"model_export_failed":     "导出模型失败",
	"confirm_delete_model":    "确定要删除此模型吗？",

	"project_name":        "项目名称",
	"project_description": "描述",
	"project_status":      "状态",
	"project_actions":     "操作",
	"no_projects":         "未找到项目",
	"create_project":      "创建项目",
	"edit_project":        "编辑项目",
	"delete_project":      "删除项目",
	"project_created":     "项目创建成功",
	"project_updated":     "项目更新成功",
	"project_deleted":     "项目删除成功",
	"status_planning":     "规划中",
	"status_in_progress":  "进行中",
	"status_completed":    "已完成",
	"status_on_hold":      "暂停",
	"confirm_delete":      "确定要删除此项目吗？",
	"project_error":       "处理项目时发生错误",

	"example_title":    "代码示例",
	"model_loading":    "模型加载示例",
	"gpu_acceleration": "GPU加速示例",
	"basic":            "基础",
	"performance":      "性能",
	"optimization":     "优化",

	"search_placeholder": "搜索模型...",
	"back_to_models":     "返回模型列表",
	"not_found":          "页面未找到",
	"generic_error":      "发生错误，请重试。",
	"csrf_failed":        "表单已过期，请重试。",
}
