// DirectorsConsole is the workflow engine behind the Directors Console media
// generation tool. It loads node-graph workflow templates exported by a visual
// graph editor or saved in the renderer's own submission format, exposes the
// editable parameters each template carries, and rebuilds the template into a
// final, directly-submittable graph once the user has chosen overrides.
package directorsconsole
