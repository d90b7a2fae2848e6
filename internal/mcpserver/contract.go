package mcpserver

// FormGuide describes how an assistant should fill in the audit form
// through the tools of this server.
const FormGuide = `# ITAC Energy Audit Form Guide

The server holds one live energy audit form. Every edit is saved
automatically after a short quiet period; there is no explicit save.

## Fields

- Read the layout from the ` + "`" + `fieldaudit://schema` + "`" + ` resource. Every field has a
  ` + "`" + `name` + "`" + `, a ` + "`" + `label` + "`" + ` and a ` + "`" + `kind` + "`" + `.
- ` + "`" + `text` + "`" + ` and ` + "`" + `notes` + "`" + ` fields take any string, stored verbatim.
- ` + "`" + `choice` + "`" + ` fields take ` + "`" + `Y` + "`" + `, ` + "`" + `N` + "`" + ` or an empty string to clear the answer.
- ` + "`" + `counter` + "`" + ` and ` + "`" + `ink` + "`" + ` fields are maintained by the server and cannot be set.

## Tables

Lighting and miscellaneous power equipment are repeatable tables. Call
` + "`" + `add_table_row` + "`" + ` and then set the cells it returns, named
` + "`" + `<column>_<row>` + "`" + ` (for example ` + "`" + `lighting_location_2` + "`" + `). Rows are numbered
from 0; removing a row renumbers the rows after it.

## Notes

Each section has an extra notes area (` + "`" + `notes_extra_<section>` + "`" + `) and
append-only notes pages (` + "`" + `notes_page_<section>_<i>` + "`" + `). Call
` + "`" + `add_notes_page` + "`" + ` for another page. Drawings are attached with ` + "`" + `set_ink` + "`" + `.

## Report

` + "`" + `export_report` + "`" + ` writes the PDF report. Only sections holding content are
printed, numbered without gaps.

## Reset

` + "`" + `reset_form` + "`" + ` erases the form and the saved copy. It only runs with
` + "`" + `confirm=true` + "`" + `; ask the user first.
`
