package applescript

// DocumentQuery returns the whole document as a property list. It expects
// the document name as its only argument and prints nothing if the
// document is not open.
const DocumentQuery = `on run argv
	set document_name to item 1 of argv

	tell application "OmniPlan"
		try
			set |document| to document document_name
		on error
			return ""
		end try

		set task_list to my child_task_list_for_parent(|document|)
		set resource_list to my resource_list_for_document(|document|)
		set selection_data to my get_selection_for_document(|document|)
		set document_data to {child_tasks:task_list, |resources|:resource_list} & selection_data
	end tell

	tell application "System Events"
		set root_plist_item to make new property list item with properties {kind:record, value:document_data}
	end tell

	return text of root_plist_item
end run
` + queryHelpers

// TaskQuery returns a single task record as a property list. Arguments are
// the document name and the task id.
const TaskQuery = `on run argv
	set document_name to item 1 of argv
	set task_id to item 2 of argv as number

	tell application "OmniPlan"
		try
			set |document| to document document_name
		on error
			return ""
		end try

		set |task| to task task_id of |document|
	end tell
	set task_record to record_for_task(|task|)

	tell application "System Events"
		set task_plist_item to make new property list item with properties {kind:record, value:task_record}
	end tell

	return text of task_plist_item
end run
` + queryHelpers

const queryHelpers = `
on get_selection_for_document(|document|)
	set should_hide to false
	tell application "System Events"
		if visible of process "OmniPlan" is false then
			set visible of process "OmniPlan" to true
			set should_hide to true
		end if
	end tell

	set target_window to my window_for_document(|document|)
	set selected_task_ids to my selected_task_ids_for_window(target_window)
	set selected_resource_ids to my selected_resource_ids_for_window(target_window)
	if should_hide then
		tell application "System Events"
			set visible of process "OmniPlan" to false
		end tell
	end if
	return {selected_task_ids:selected_task_ids, selected_resource_ids:selected_resource_ids}
end get_selection_for_document

on selected_task_ids_for_window(|window|)
	set selected_task_ids to {}
	tell application "OmniPlan"
		repeat with |task| in (selected tasks of |window| as list)
			set end of selected_task_ids to id of |task|
		end repeat
	end tell
	return selected_task_ids
end selected_task_ids_for_window

on selected_resource_ids_for_window(|window|)
	set selected_resource_ids to {}
	tell application "OmniPlan"
		repeat with |resource| in (selected resources of |window| as list)
			set end of selected_resource_ids to id of |resource|
		end repeat
	end tell
	return selected_resource_ids
end selected_resource_ids_for_window

on window_for_document(|document|)
	tell application "OmniPlan"
		repeat with |window| in windows
			if document of |window| = |document| then
				return |window|
			end if
		end repeat
	end tell
	return missing value
end window_for_document

on record_for_task(|task|)
	using terms from application "OmniPlan"
		tell |task|
			set custom_data to my custom_data_for_task(|task|)
			set child_task_list to my child_task_list_for_parent(it)
			set prerequisites_list to my prerequisites_list_for_task(it)
			set task_record to {|id|:id, |name|:name, completed_effort:completed effort, |duration|:duration, |effort|:effort, ending_date:ending date, ending_constraint_date:my replace_missing_value(ending constraint date), outline_number:outline number, |priority|:priority, remaining_effort:remaining effort, starting_constraint_date:my replace_missing_value(starting constraint date), starting_date:starting date, task_status:task status, task_type:task type, total_cost:total cost, child_tasks:child_task_list, custom_data:custom_data, prerequisites_data:prerequisites_list}
			return task_record
		end tell
	end using terms from
end record_for_task

on child_task_list_for_parent(parent)
	using terms from application "OmniPlan"
		set task_list to {}
		tell parent
			repeat with child_task in child tasks
				set end of task_list to my record_for_task(child_task)
			end repeat
		end tell
		return task_list
	end using terms from
end child_task_list_for_parent

on prerequisites_list_for_task(task)
	using terms from application "OmniPlan"
		set prerequisites_list to {}
		repeat with |dependency| in prerequisites of |task|
			tell |dependency|
				set end of prerequisites_list to {dependency_type:dependency type, dependent_task_id:id of dependent task, prerequisite_task_id:id of prerequisite task, lead_percentage:lead percentage, lead_time:lead time}
			end tell
		end repeat
		return prerequisites_list
	end using terms from
end prerequisites_list_for_task

on custom_data_for_task(task)
	using terms from application "OmniPlan"
		set custom_data to {}
		repeat with entry in custom data entries of |task|
			set end of custom_data to {|name|:name of entry, |value|:my replace_missing_value(value of entry)}
		end repeat
		return custom_data
	end using terms from
end custom_data_for_task

on resource_list_for_document(|document|)
	using terms from application "OmniPlan"
		set resource_list to {}
		repeat with |resource| in resources of |document|
			set assignment_list to my assignment_list_for_resource(|resource|)
			tell |resource|
				set end of resource_list to {|id|:id, |name|:name, task_assignments:assignment_list}
			end tell
		end repeat
		return resource_list
	end using terms from
end resource_list_for_document

on assignment_list_for_resource(resource)
	using terms from application "OmniPlan"
		set assignment_list to {}
		repeat with |assignment| in assignments of |resource|
			tell |assignment|
				set end of assignment_list to {task_id:id of task of it, |units|:units}
			end tell
		end repeat
		return assignment_list
	end using terms from
end assignment_list_for_resource

on replace_missing_value(value)
	if value is missing value then
		return ""
	end if
	return value
end replace_missing_value
`
